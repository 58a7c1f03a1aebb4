package manage

import (
	"github.com/UnAfraid/ipconfd/pkg/ipconfig"
)

const (
	ChangedActionAdded      = "ADDED"
	ChangedActionRemoved    = "REMOVED"
	ChangedActionUpdated    = "UPDATED"
	ChangedActionUp         = "UP"
	ChangedActionDown       = "DOWN"
	ChangedActionLowerUp    = "LOWER_UP"
	ChangedActionLowerDown  = "LOWER_DOWN"
	ChangedActionIPBound    = "IP_BOUND"
	ChangedActionIPRelease  = "IP_RELEASE"
	ChangedActionRouteSet   = "ROUTE_SET"
	ChangedActionRouteUnset = "ROUTE_UNSET"
	ChangedActionStatistics = "STATISTICS"
)

type ChangedEvent struct {
	Action     string               `json:"action"`
	Index      int                  `json:"index"`
	Interface  string               `json:"interface,omitempty"`
	Family     string               `json:"family,omitempty"`
	Statistics *ipconfig.Statistics `json:"statistics,omitempty"`
}
