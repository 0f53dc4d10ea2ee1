package social

import (
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

const (
	// MinPasswordLength is the shortest password accepted at registration.
	MinPasswordLength = 4
	// MaxMessageLength is the longest message text accepted, in characters.
	MaxMessageLength = 255
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	return v
}

var (
	passwordRule    = "min=" + strconv.Itoa(MinPasswordLength)
	messageTextRule = "max=" + strconv.Itoa(MaxMessageLength)
)

// isBlank reports whether s is empty or whitespace only.
func isBlank(s string) bool {
	return validate.Var(s, "notblank") != nil
}

func passwordTooShort(password string) bool {
	return validate.Var(password, passwordRule) != nil
}

func messageTooLong(text string) bool {
	return validate.Var(text, messageTextRule) != nil
}

// checkMessageText applies the blank and length rules shared by create and update.
func checkMessageText(text string) error {
	if isBlank(text) {
		return invalidMessage(MsgBlankMessage)
	}
	if messageTooLong(text) {
		return invalidMessage(MsgMessageTooLong)
	}
	return nil
}
