package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/UnAfraid/ipconfd/pkg/ipconfig"
	"github.com/UnAfraid/ipconfd/pkg/ippool"
	"github.com/UnAfraid/ipconfd/pkg/manage"
)

var (
	errInvalidIndex       = errors.New("invalid interface index")
	errInvalidRequestBody = errors.New("invalid request body")
)

type errorResponse struct {
	Error string `json:"error"`
}

func checkOrigin(r *http.Request, allowedSubscriptionOrigins []string) bool {
	origin := r.Header["Origin"]
	if len(origin) == 0 {
		return true
	}

	u, err := url.Parse(origin[0])
	if err != nil {
		return false
	}

	for _, allowedHost := range allowedSubscriptionOrigins {
		allowedHost = strings.TrimSpace(allowedHost)
		if allowedHost == "*" {
			return true
		}
		if strings.EqualFold(u.Host, allowedHost) {
			return true
		}
	}

	return strings.EqualFold(u.Host, r.Host)
}

func indexParam(r *http.Request) (int, error) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index <= 0 {
		return 0, errInvalidIndex
	}
	return index, nil
}

func familyParam(r *http.Request) (ipconfig.Family, error) {
	family := ipconfig.ParseFamily(chi.URLParam(r, "family"))
	if family == ipconfig.FamilyUnknown {
		return family, manage.ErrInvalidFamily
	}
	return family, nil
}

func decodeBody(r *http.Request, v any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return errors.Join(errInvalidRequestBody, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.
			WithError(err).
			Warn("failed to write response")
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusCode(err)
	if status == http.StatusInternalServerError {
		logrus.
			WithError(err).
			Error("request failed")
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func statusCode(err error) int {
	switch {
	case errors.Is(err, manage.ErrInterfaceNotFound):
		return http.StatusNotFound
	case errors.Is(err, manage.ErrInterfaceNotManaged),
		errors.Is(err, ippool.ErrSubnetInUse):
		return http.StatusConflict
	case errors.Is(err, errInvalidIndex),
		errors.Is(err, errInvalidRequestBody),
		errors.Is(err, manage.ErrInvalidFamily),
		errors.Is(err, ipconfig.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, manage.ErrServiceClosed):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
