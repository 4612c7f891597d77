package common

import (
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"

	"github.com/leapstack-labs/ssot/internal/ui/session"
	"github.com/leapstack-labs/ssot/pkg/core"
)

// SessionName is the cookie holding the session id and the presets.
const SessionName = "ssot"

const (
	sidKey       = "sid"
	presetPrefix = "preset."
)

// PresetDimensions are the dimensions a drill-down link may preset.
var PresetDimensions = []core.Dimension{
	core.AgencyDimension,
	core.AdvertiserDimension,
	core.CampaignDimension,
	core.ChannelDimension,
}

// PresetsFromQuery extracts drill-down values from a query string. ok is
// false when the query names none of the preset dimensions, even empty.
func PresetsFromQuery(q url.Values) (presets map[string]string, ok bool) {
	presets = make(map[string]string)
	for _, d := range PresetDimensions {
		if _, present := q[d.Name]; !present {
			continue
		}
		ok = true
		if v := q.Get(d.Name); v != "" {
			presets[d.Name] = v
		}
	}
	return presets, ok
}

// PresetQuery encodes presets for a drill-down link.
func PresetQuery(presets map[string]string) url.Values {
	q := url.Values{}
	for _, d := range PresetDimensions {
		if v := presets[d.Name]; v != "" {
			q.Set(d.Name, v)
		}
	}
	return q
}

func cookiePresets(sess *sessions.Session) map[string]string {
	out := make(map[string]string)
	for _, d := range PresetDimensions {
		if v, ok := sess.Values[presetPrefix+d.Name].(string); ok && v != "" {
			out[d.Name] = v
		}
	}
	return out
}

// LoadState returns the view state of the requesting browser. A new
// session id is minted when the cookie has none; it is only written back
// when save is true, which SSE handlers cannot do once streaming.
func (d *Deps) LoadState(w http.ResponseWriter, r *http.Request, save bool) (*session.State, error) {
	// a cookie signed with an old secret decodes to a fresh session
	sess, _ := d.Sessions.Get(r, SessionName)

	sid, _ := sess.Values[sidKey].(string)
	if sid == "" {
		sid = uuid.NewString()
		sess.Values[sidKey] = sid
		if save {
			if err := sess.Save(r, w); err != nil {
				return nil, err
			}
		}
	}

	presets := cookiePresets(sess)
	return d.Registry.Open(sid, presets), nil
}

// SavePresets stores the drill-down values in the cookie and in the state.
func (d *Deps) SavePresets(w http.ResponseWriter, r *http.Request, presets map[string]string) (*session.State, error) {
	sess, _ := d.Sessions.Get(r, SessionName)

	sid, _ := sess.Values[sidKey].(string)
	if sid == "" {
		sid = uuid.NewString()
		sess.Values[sidKey] = sid
	}
	for _, dim := range PresetDimensions {
		key := presetPrefix + dim.Name
		if v := presets[dim.Name]; v != "" {
			sess.Values[key] = v
			continue
		}
		delete(sess.Values, key)
	}
	if err := sess.Save(r, w); err != nil {
		return nil, err
	}

	st := d.Registry.Open(sid, presets)
	st.Lock()
	st.SetPresets(presets)
	st.Unlock()
	return st, nil
}
