package portalsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
)

type service struct {
	client  *http.Client
	baseURL string
	token   string
	logger  core.Logger
}

var _ attendance.Portal = (*service)(nil)

// NewService returns an attendance.Portal speaking to the portal's REST API
// with the given bearer access token.
func NewService(conf *core.Config, accessToken string, logger core.Logger) attendance.Portal {
	return &service{
		client:  &http.Client{Timeout: conf.Portal.Timeout},
		baseURL: strings.TrimRight(conf.Portal.BaseURL, "/"),
		token:   accessToken,
		logger:  logger,
	}
}

func (svc *service) CreateSession(ctx context.Context, ns attendance.NewSession) (attendance.Session, error) {
	var sess attendance.Session
	err := svc.do(ctx, http.MethodPost, "/attendance/sessions", ns, &sess)
	return sess, err
}

func (svc *service) SetSessionActive(ctx context.Context, sessionID string, active bool) (attendance.Session, error) {
	in := struct {
		IsActive bool `json:"is_active"`
	}{active}
	var sess attendance.Session
	err := svc.do(ctx, http.MethodPatch, "/attendance/sessions/"+url.PathEscape(sessionID), in, &sess)
	return sess, err
}

func (svc *service) DeleteSession(ctx context.Context, sessionID string) error {
	return svc.do(ctx, http.MethodDelete, "/attendance/sessions/"+url.PathEscape(sessionID), nil, nil)
}

func (svc *service) QuerySessions(ctx context.Context, courseID string) ([]attendance.Session, error) {
	var sessions []attendance.Session
	path := "/attendance/sessions?course_id=" + url.QueryEscape(courseID)
	err := svc.do(ctx, http.MethodGet, path, nil, &sessions)
	return sessions, err
}

func (svc *service) CurrentToken(ctx context.Context, sessionID string) (attendance.RotatingToken, error) {
	var tok attendance.RotatingToken
	err := svc.do(ctx, http.MethodGet, "/attendance/sessions/"+url.PathEscape(sessionID)+"/token", nil, &tok)
	return tok, err
}

func (svc *service) Redeem(ctx context.Context, req attendance.RedemptionRequest) (attendance.RedemptionResult, error) {
	// rejections are part of the result contract, not transport errors
	var res attendance.RedemptionResult
	err := svc.do(ctx, http.MethodPost, "/attendance/redeem", req, &res)
	return res, err
}

func (svc *service) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "encoding request")
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, svc.baseURL+path, body)
	if err != nil {
		return errors.Wrap(err, "creating request")
	}
	req.Header.Set("Authorization", "Bearer "+svc.token)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := svc.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "calling portal")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return attendance.ErrSessionNotFound
	case resp.StatusCode >= 300:
		data, _ := io.ReadAll(resp.Body)
		return errors.Errorf("portal returned %d: %s", resp.StatusCode, bytes.TrimSpace(data))
	}
	if out == nil {
		return nil
	}
	return errors.Wrap(json.NewDecoder(resp.Body).Decode(out), "decoding response")
}
