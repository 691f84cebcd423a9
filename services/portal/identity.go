package portalsvc

import (
	"errors"

	"github.com/dgrijalva/jwt-go"
	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
)

var errNoSubject = errors.New("access token has no subject")

// Identity extracts the opaque subject id from the access token's claims.
// The signature is not verified here; the portal verifies it on every call,
// the client only needs the subject to fill requests.
func Identity(accessToken string) (core.Identity, error) {
	claims := jwt.StandardClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(accessToken, &claims); err != nil {
		return core.Identity{}, pkgerrors.Wrap(err, "parsing access token")
	}
	if claims.Subject == "" {
		return core.Identity{}, errNoSubject
	}
	return core.Identity{SubjectID: claims.Subject}, nil
}
