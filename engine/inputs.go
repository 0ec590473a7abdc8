// ABOUTME: Validated input types for engagement mutations
// ABOUTME: Struct tags are checked with go-playground/validator before any store call
package engine

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/harperreed/pursuit/models"
)

// NewEngagement describes an engagement to create. A zero StartDate means now.
type NewEngagement struct {
	Company         string `validate:"required,max=200"`
	ContactName     string `validate:"max=200"`
	ContactEmail    string `validate:"omitempty,email"`
	ContactPhone    string `validate:"max=50"`
	Industry        string `validate:"max=100"`
	DealValue       int64  `validate:"gte=0"`
	StartDate       time.Time
	Competitors     []string `validate:"dive,required"`
	OtherCompetitor string   `validate:"max=200"`
	SalesRepID      string
}

// EngagementDetails is a partial attribute edit; nil fields are left alone.
type EngagementDetails struct {
	Company      *string `validate:"omitempty,min=1,max=200"`
	ContactName  *string `validate:"omitempty,max=200"`
	ContactEmail *string `validate:"omitempty,email"`
	ContactPhone *string `validate:"omitempty,max=50"`
	Industry     *string `validate:"omitempty,max=100"`
	DealValue    *int64  `validate:"omitempty,gte=0"`
}

// LinkInput is one phase link.
type LinkInput struct {
	Title string `validate:"required,max=200"`
	URL   string `validate:"required,url"`
}

// PhaseUpdate is a phase save. Nil Notes or Links keep the stored value.
type PhaseUpdate struct {
	Status models.PhaseStatus `validate:"required"`
	Notes  *string            `validate:"omitempty,max=10000"`
	Links  *[]LinkInput       `validate:"omitempty,dive"`
}

// NewActivity describes an activity to log.
type NewActivity struct {
	Type        string    `validate:"required,oneof=CALL EMAIL MEETING DEMO NOTE"`
	Date        time.Time `validate:"required"`
	Description string    `validate:"max=10000"`
}

// ActivityEdit is a partial activity edit.
type ActivityEdit struct {
	Type        *string    `validate:"omitempty,oneof=CALL EMAIL MEETING DEMO NOTE"`
	Date        *time.Time `validate:"omitempty"`
	Description *string    `validate:"omitempty,max=10000"`
}

const maxTextLen = 10000

type textInput struct {
	Text string `validate:"required,max=10000"`
}

func newValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

func (c *Coordinator) check(v any) error {
	if err := c.validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
			}
			return invalid("%s", strings.Join(fields, ", "))
		}
		return invalid("%v", err)
	}
	return nil
}

func (c *Coordinator) checkText(text string) error {
	return c.check(textInput{Text: text})
}

func toLinks(in []LinkInput) []models.PhaseLink {
	out := make([]models.PhaseLink, len(in))
	for i, l := range in {
		out[i] = models.PhaseLink{Title: l.Title, URL: l.URL}
	}
	return out
}
