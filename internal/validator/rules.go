package validator

import (
	"github.com/go-playground/validator/v10"

	"bondlink_backend/internal/models"
)

func registerCustomRules(v *validator.Validate) {
	// notification_kind - значение должно быть из закрытого перечня видов
	_ = v.RegisterValidation("notification_kind", func(fl validator.FieldLevel) bool {
		return models.ValidNotificationKind(fl.Field().String())
	})
}
