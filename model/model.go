package model

import "time"

type Role string

const (
	RoleSuperadmin Role = "superadmin"
	RoleCommercial Role = "commercial"
	RoleAssistance Role = "assistance"
)

func (r Role) Valid() bool {
	switch r {
	case RoleSuperadmin, RoleCommercial, RoleAssistance:
		return true
	}
	return false
}

// FieldType is an explicit tag carried by every field. The per-type
// configuration is a union: choice types carry Options, conditional types
// carry ConditionalOptions, scalar types carry neither.
type FieldType string

const (
	FieldText          FieldType = "text"
	FieldTextarea      FieldType = "textarea"
	FieldNumber        FieldType = "number"
	FieldDate          FieldType = "date"
	FieldTime          FieldType = "time"
	FieldRadio         FieldType = "radio"
	FieldCheckbox      FieldType = "checkbox"
	FieldSelect        FieldType = "select"
	FieldYesNo         FieldType = "yes_no"
	FieldQuestionGroup FieldType = "question_group"
)

func (t FieldType) Valid() bool {
	switch t {
	case FieldText, FieldTextarea, FieldNumber, FieldDate, FieldTime,
		FieldRadio, FieldCheckbox, FieldSelect, FieldYesNo, FieldQuestionGroup:
		return true
	}
	return false
}

// HasOptions reports whether the type carries a flat choice list.
func (t FieldType) HasOptions() bool {
	switch t {
	case FieldRadio, FieldCheckbox, FieldSelect:
		return true
	}
	return false
}

// HasConditional reports whether the type may carry conditional options
// with nested inputs and radio sub-questions.
func (t FieldType) HasConditional() bool {
	switch t {
	case FieldSelect, FieldYesNo, FieldQuestionGroup:
		return true
	}
	return false
}

type Form struct {
	ID          int       `json:"id,omitempty"`
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description"`
	CreatedBy   string    `json:"createdBy,omitempty"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
	Sections    []Section `json:"sections"`
}

type Section struct {
	ID     int     `json:"id,omitempty"`
	Title  string  `json:"title"`
	Fields []Field `json:"fields"`
}

type Field struct {
	ID                 int                 `json:"id,omitempty"`
	Type               FieldType           `json:"type"`
	Label              string              `json:"label"`
	Required           bool                `json:"required"`
	ShowOtherOption    bool                `json:"showOtherOption"`
	Options            []string            `json:"options,omitempty"`
	ConditionalOptions []ConditionalOption `json:"conditionalOptions,omitempty"`
}

type ConditionalOption struct {
	ID            int                `json:"id,omitempty"`
	OptionText    string             `json:"option"`
	RadioQuestion string             `json:"radioQuestion,omitempty"`
	RadioOptions  []string           `json:"radioOptions,omitempty"`
	Inputs        []ConditionalInput `json:"inputs,omitempty"`
}

type ConditionalInput struct {
	Label string `json:"label"`
}

type Status string

const (
	StatusPending         Status = "pending"
	StatusApproved        Status = "approved"
	StatusRejected        Status = "rejected"
	StatusNeedsCorrection Status = "needs_correction"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusNeedsCorrection:
		return true
	}
	return false
}

// Terminal reports whether no further status transitions are allowed.
func (s Status) Terminal() bool {
	return s == StatusApproved
}

type FormResponse struct {
	ID          int       `json:"id"`
	FormID      int       `json:"form_id"`
	ClientID    int       `json:"client_id"`
	Answers     string    `json:"-"`
	Status      Status    `json:"status"`
	SubmittedAt time.Time `json:"submitted_at"`
}

type Client struct {
	ID                 int    `json:"id,omitempty"`
	CompanyName        string `json:"companyName" validate:"required"`
	LegalForm          string `json:"legalForm"`
	RegistrationNumber string `json:"registrationNumber"`
	VatNumber          string `json:"vatNumber"`
	Industry           string `json:"industry"`
	FoundingDate       string `json:"foundingDate"`
	Address            string `json:"address"`
	City               string `json:"city"`
	PostalCode         string `json:"postalCode"`
	Country            string `json:"country"`
	Phone              string `json:"phone"`
	Email              string `json:"email" validate:"omitempty,email"`
	Website            string `json:"website"`
	Description        string `json:"description"`
	Employees          int    `json:"employees"`
	Revenue            string `json:"revenue"`
	CeoName            string `json:"ceoName"`
	ContactPerson      string `json:"contactPerson"`
}

type User struct {
	ID           int    `json:"id"`
	FullName     string `json:"fullName"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	Role         Role   `json:"role"`
	IsProtected  bool   `json:"isProtected,omitempty"`
}

type Settings struct {
	SiteName     string      `json:"siteName"`
	FooterText   string      `json:"footerText"`
	ContactEmail string      `json:"contactEmail"`
	Phone        string      `json:"phone"`
	Address      string      `json:"address"`
	LogoUrl      string      `json:"logoUrl,omitempty"`
	SocialLinks  SocialLinks `json:"socialLinks"`
}

type SocialLinks struct {
	Facebook  string `json:"facebook"`
	Instagram string `json:"instagram"`
	Twitter   string `json:"twitter"`
	LinkedIn  string `json:"linkedin"`
}

type SupportMessage struct {
	ID        int       `json:"id"`
	Name      string    `json:"name" validate:"required"`
	Email     string    `json:"email" validate:"required,email"`
	Message   string    `json:"message" validate:"required"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}
