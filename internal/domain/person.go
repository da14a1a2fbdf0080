package domain

// PersonRole enumerates the roles a person can hold.
type PersonRole string

const (
	PersonRoleAny      PersonRole = "ANY"
	PersonRoleStudent  PersonRole = "STUDENT"
	PersonRoleEmployee PersonRole = "EMPLOYEE"
)

// Valid reports whether r is a known role, including the ANY wildcard.
func (r PersonRole) Valid() bool {
	switch r {
	case PersonRoleAny, PersonRoleStudent, PersonRoleEmployee:
		return true
	}
	return false
}

// EmployeeType enumerates employment arrangements.
type EmployeeType string

const (
	EmployeeTypeAny      EmployeeType = "ANY"
	EmployeeTypeFullTime EmployeeType = "FULL_TIME"
	EmployeeTypePartTime EmployeeType = "PART_TIME"
)

// Valid reports whether t is a known employee type, including ANY.
func (t EmployeeType) Valid() bool {
	switch t {
	case EmployeeTypeAny, EmployeeTypeFullTime, EmployeeTypePartTime:
		return true
	}
	return false
}

// PersonField names a sortable column of a person record.
type PersonField string

const (
	PersonFieldID           PersonField = "id"
	PersonFieldFirstName    PersonField = "firstName"
	PersonFieldLastName     PersonField = "lastName"
	PersonFieldEmail        PersonField = "email"
	PersonFieldRole         PersonField = "role"
	PersonFieldEmployeeType PersonField = "employeeType"
)

// PersonFields lists the record keys in grid column order.
var PersonFields = []PersonField{
	PersonFieldID,
	PersonFieldFirstName,
	PersonFieldLastName,
	PersonFieldEmail,
	PersonFieldRole,
	PersonFieldEmployeeType,
}

// Valid reports whether f is a key of Person.
func (f PersonField) Valid() bool {
	for _, known := range PersonFields {
		if f == known {
			return true
		}
	}
	return false
}

// SortDirection is the ordering applied to a sort field.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// Valid reports whether d is asc or desc.
func (d SortDirection) Valid() bool {
	return d == SortAsc || d == SortDesc
}

// Person is a read-only snapshot of one administered record.
type Person struct {
	ID           int64        `json:"id"`
	FirstName    string       `json:"firstName"`
	LastName     string       `json:"lastName"`
	Email        string       `json:"email"`
	Role         PersonRole   `json:"role"`
	EmployeeType EmployeeType `json:"employeeType"`
}
