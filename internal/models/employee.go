package models

import "time"

// OccupationCode identifies what an employee does on board (or on the ground).
type OccupationCode string

const (
	OccupationPilot           OccupationCode = "PILOT"
	OccupationSecondPilot     OccupationCode = "SECOND_PILOT"
	OccupationSeniorAttendant OccupationCode = "SENIOR_ATTENDANT"
	OccupationAttendant       OccupationCode = "ATTENDANT"
)

// Employee is a crew member candidate.
type Employee struct {
	ID             string         `db:"id" json:"id"`
	FullName       string         `db:"full_name" json:"full_name"`
	OccupationCode OccupationCode `db:"occupation_code" json:"occupation_code"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
}

// EmployeeLogStatus classifies an employee log entry.
type EmployeeLogStatus string

const (
	EmployeeLogOK          EmployeeLogStatus = "OK"
	EmployeeLogNoShow      EmployeeLogStatus = "NO_SHOW"
	EmployeeLogLeaveUnpaid EmployeeLogStatus = "LEAVE_UNPAID"
	EmployeeLogLeavePaid   EmployeeLogStatus = "LEAVE_PAID"
	EmployeeLogLeaveSick   EmployeeLogStatus = "LEAVE_SICK"
)

// EmployeeLog records a period during which an employee may be unavailable.
type EmployeeLog struct {
	ID              string            `db:"id" json:"id"`
	EmployeeID      string            `db:"employee_id" json:"employee_id"`
	Status          EmployeeLogStatus `db:"status" json:"status"`
	DisabilityStart *time.Time        `db:"disability_start" json:"disability_start,omitempty"`
	DisabilityEnd   *time.Time        `db:"disability_end" json:"disability_end,omitempty"`
	Description     string            `db:"description" json:"description"`
}

// Blocks reports whether the entry makes the employee unavailable somewhere in [start, end].
// Only non-OK entries with a full disability period count.
func (l EmployeeLog) Blocks(start, end time.Time) bool {
	if l.Status == EmployeeLogOK || l.DisabilityStart == nil || l.DisabilityEnd == nil {
		return false
	}
	return !l.DisabilityEnd.Before(start) && l.DisabilityStart.Before(end)
}
