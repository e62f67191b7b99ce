package models

type Doctor struct {
	ID                    int    `json:"id"`
	FullName              string `json:"full_name"`
	AverageAppointmentMin int    `json:"average_appointment_min"`
	ScheduleID            int    `json:"schedule_id"`
}

type Patient struct {
	ID       int    `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email,omitempty"`
}
