package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"
)

func NewValidator() *validatorv10.Validate {
	return validatorv10.New(validatorv10.WithRequiredStructEnabled())
}

// decodeAndValidate: JSON decode + struct tag validation dalam satu langkah.
func decodeAndValidate(r *http.Request, v *validatorv10.Validate, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.New("invalid json")
	}
	if err := v.Struct(dst); err != nil {
		var verrs validatorv10.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Field())
			}
			return fmt.Errorf("invalid fields: %s", strings.Join(fields, ", "))
		}
		return errors.New("invalid request")
	}
	return nil
}
