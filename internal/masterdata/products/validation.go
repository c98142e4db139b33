package products

import (
	"strings"

	"github.com/printdesk/printdesk/internal/shared"
)

func (s *Service) validate(form ProductForm) error {
	if err := shared.ValidateStruct(form); err != nil {
		return err
	}
	fields := shared.FieldErrors{}
	if strings.TrimSpace(form.Name) == "" {
		fields["name"] = "is required"
	}
	if strings.TrimSpace(form.Category) == "" {
		fields["category"] = "is required"
	}
	if len(fields) > 0 {
		return fields
	}
	return nil
}
