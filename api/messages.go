package api

// Origin is the client that asked for a session.
type Origin int32

const (
	OriginUnknown       Origin = 0
	OriginCLI           Origin = 1
	OriginPartnerPortal Origin = 2
)

func (o Origin) String() string {
	switch o {
	case OriginCLI:
		return "ORIGIN_CLI"
	case OriginPartnerPortal:
		return "ORIGIN_PARTNER_PORTAL"
	default:
		return "ORIGIN_UNKNOWN"
	}
}

type StartSessionRequest struct {
	// GameletName is the full resource name, e.g.
	// "organizations/{org}/projects/{proj}/pools/{pool}/gamelets/{id}".
	GameletName          string `json:"gamelet_name"`
	WorkstationDirectory string `json:"workstation_directory"`
	Origin               Origin `json:"origin"`
}

func (r *StartSessionRequest) GetGameletName() string {
	if r == nil {
		return ""
	}
	return r.GameletName
}

func (r *StartSessionRequest) GetWorkstationDirectory() string {
	if r == nil {
		return ""
	}
	return r.WorkstationDirectory
}

func (r *StartSessionRequest) GetOrigin() Origin {
	if r == nil {
		return OriginUnknown
	}
	return r.Origin
}

type StartSessionResponse struct{}

type StopSessionRequest struct {
	GameletID string `json:"gamelet_id"`
}

func (r *StopSessionRequest) GetGameletID() string {
	if r == nil {
		return ""
	}
	return r.GameletID
}

type StopSessionResponse struct{}
