package api

import (
	"net/http"

	"github.com/UnAfraid/ipconfd/pkg/internal/adapt"
	"github.com/UnAfraid/ipconfd/pkg/ipconfig"
	"github.com/UnAfraid/ipconfd/pkg/manage"
)

type methodRequest struct {
	Method string `json:"method"`
}

type addressRequest struct {
	Local        string `json:"local"`
	PrefixLength *uint8 `json:"prefixLength"`
	Peer         string `json:"peer"`
	Broadcast    string `json:"broadcast"`
	Gateway      string `json:"gateway"`
}

type privacyRequest struct {
	Privacy string `json:"privacy"`
}

type interfaceHandler struct {
	manageService manage.Service
}

func (h *interfaceHandler) list(w http.ResponseWriter, r *http.Request) {
	interfaces, err := h.manageService.Interfaces(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, interfaces)
}

func (h *interfaceHandler) get(w http.ResponseWriter, r *http.Request) {
	index, err := indexParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	iface, err := h.manageService.Interface(r.Context(), index)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, iface)
}

func (h *interfaceHandler) configure(w http.ResponseWriter, r *http.Request) {
	index, err := indexParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	iface, err := h.manageService.Configure(r.Context(), index)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, iface)
}

func (h *interfaceHandler) setMethod(w http.ResponseWriter, r *http.Request) {
	index, family, err := indexAndFamily(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var request methodRequest
	if err := decodeBody(r, &request); err != nil {
		writeError(w, err)
		return
	}

	iface, err := h.manageService.SetMethod(r.Context(), index, family, ipconfig.ParseMethod(request.Method))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, iface)
}

// setAddress defaults the prefix length to a single host.
func (h *interfaceHandler) setAddress(w http.ResponseWriter, r *http.Request) {
	index, family, err := indexAndFamily(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var request addressRequest
	if err := decodeBody(r, &request); err != nil {
		writeError(w, err)
		return
	}

	prefixLength := adapt.Dereference(request.PrefixLength)
	if request.PrefixLength == nil {
		prefixLength = 32
		if family == ipconfig.FamilyIPv6 {
			prefixLength = 128
		}
	}

	iface, err := h.manageService.SetAddress(r.Context(), index, family, &manage.AddressOptions{
		Local:        request.Local,
		PrefixLength: prefixLength,
		Peer:         request.Peer,
		Broadcast:    request.Broadcast,
		Gateway:      request.Gateway,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, iface)
}

func (h *interfaceHandler) applyProperties(w http.ResponseWriter, r *http.Request) {
	index, family, err := indexAndFamily(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var props ipconfig.Properties
	if err := decodeBody(r, &props); err != nil {
		writeError(w, err)
		return
	}

	iface, err := h.manageService.ApplyProperties(r.Context(), index, family, props)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, iface)
}

func (h *interfaceHandler) setPrivacy(w http.ResponseWriter, r *http.Request) {
	index, err := indexParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var request privacyRequest
	if err := decodeBody(r, &request); err != nil {
		writeError(w, err)
		return
	}

	iface, err := h.manageService.SetPrivacy(r.Context(), index, request.Privacy)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, iface)
}

func (h *interfaceHandler) resetPrivacy(w http.ResponseWriter, r *http.Request) {
	index, err := indexParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	iface, err := h.manageService.ResetPrivacy(r.Context(), index)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, iface)
}

func indexAndFamily(r *http.Request) (int, ipconfig.Family, error) {
	index, err := indexParam(r)
	if err != nil {
		return 0, ipconfig.FamilyUnknown, err
	}
	family, err := familyParam(r)
	if err != nil {
		return 0, ipconfig.FamilyUnknown, err
	}
	return index, family, nil
}
