package attendance

import (
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/mahudhurio/core"
)

var (
	credentialTag  = "token_or_session_id"
	credentialText = "one of token or session id is required"
)

func init() {
	// register validators
	core.Validate.RegisterStructValidation(redemptionStructValidation, RedemptionRequest{})
	core.RegisterCustomTranslation(credentialTag, credentialText)
}

// redemptionStructValidation ensures a request carries exactly one credential.
func redemptionStructValidation(sl validator.StructLevel) {
	req := sl.Current().Interface().(RedemptionRequest)
	if req.Token == "" && req.SessionID == "" {
		sl.ReportError(req.Token, "credential", "Token", credentialTag, "")
	}
	if req.Token != "" && req.SessionID != "" {
		sl.ReportError(req.Token, "credential", "Token", credentialTag, "")
	}
}
