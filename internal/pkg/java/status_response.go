package java

import (
	"encoding/base64"
	"fmt"
	"os"

	"github.com/df-mc/atomic"
	"github.com/haveachin/gatekeeper/internal/pkg/java/protocol/status"
)

type PlayerSample struct {
	Name string
	UUID string
}

type PlayerSamples []PlayerSample

func (ps PlayerSamples) PlayerSampleJSON() []status.PlayerSampleJSON {
	if len(ps) == 0 {
		return nil
	}

	ss := make([]status.PlayerSampleJSON, len(ps))
	for i, s := range ps {
		ss[i] = status.PlayerSampleJSON{
			Name: s.Name,
			ID:   s.UUID,
		}
	}
	return ss
}

// StatusResponse is the configurable part of the server list status.
type StatusResponse struct {
	VersionName    string
	ProtocolNumber int
	MaxPlayerCount int
	PlayerSamples  PlayerSamples
	MOTD           string
	// Favicon is the data URL of the server icon, see LoadFavicon.
	Favicon string
}

func (r StatusResponse) ResponseJSON(onlinePlayers int) status.ResponseJSON {
	return status.ResponseJSON{
		Version: status.VersionJSON{
			Name:     r.VersionName,
			Protocol: r.ProtocolNumber,
		},
		Players: status.PlayersJSON{
			Max:    r.MaxPlayerCount,
			Online: onlinePlayers,
			Sample: r.PlayerSamples.PlayerSampleJSON(),
		},
		Description: status.DescriptionJSON{
			Text: r.MOTD,
		},
		Favicon: r.Favicon,
	}
}

// StatusProvider supplies the status document for status requests.
type StatusProvider interface {
	StatusResponse() status.ResponseJSON
}

type StatusProviderFunc func() status.ResponseJSON

func (fn StatusProviderFunc) StatusResponse() status.ResponseJSON {
	return fn()
}

// LiveStatus is a StatusProvider whose response can be replaced while the
// gateway is running. The online count is read on every request.
type LiveStatus struct {
	resp   *atomic.Value[StatusResponse]
	online func() int
}

func NewLiveStatus(resp StatusResponse, online func() int) *LiveStatus {
	if online == nil {
		online = func() int { return 0 }
	}

	return &LiveStatus{
		resp:   atomic.NewValue(resp),
		online: online,
	}
}

func (s *LiveStatus) Store(resp StatusResponse) {
	s.resp.Store(resp)
}

func (s *LiveStatus) Load() StatusResponse {
	return s.resp.Load()
}

func (s *LiveStatus) StatusResponse() status.ResponseJSON {
	return s.resp.Load().ResponseJSON(s.online())
}

// LoadFavicon reads a PNG file and encodes it as a data URL.
// An empty path yields an empty favicon.
func LoadFavicon(path string) (string, error) {
	if path == "" {
		return "", nil
	}

	bb, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	img64 := base64.StdEncoding.EncodeToString(bb)

	return fmt.Sprintf("data:image/png;base64,%s", img64), nil
}
