package biz

import (
	"encoding/json"
	"fmt"
	"strconv"

	"SnakeKeeper/internal/conf"
	"SnakeKeeper/internal/data"
	"SnakeKeeper/pkg/game"
)

// ClientProfile is the client identity shared by every message.
type ClientProfile struct {
	PfID             int64
	Version          string
	BundleIdentifier string
	DeviceID         string
}

// ProfileSource resolves the client profile: configured defaults overridden by
// the "common" node of the account file.
type ProfileSource struct {
	base ClientProfile
	repo AccountRepo
}

// NewProfileSource creates a ProfileSource from game.profile.
func NewProfileSource(c *conf.Game, repo AccountRepo) *ProfileSource {
	var base ClientProfile
	if c != nil && c.Profile != nil {
		base = ClientProfile{
			PfID:             int64(c.Profile.PfID),
			Version:          c.Profile.Version,
			BundleIdentifier: c.Profile.BundleIdentifier,
			DeviceID:         c.Profile.DeviceID,
		}
	}
	return &ProfileSource{base: base, repo: repo}
}

// Current returns the profile in effect. Must be called after the accounts were loaded.
func (s *ProfileSource) Current() ClientProfile {
	p := s.base
	if s.repo == nil {
		return p
	}
	common := s.repo.Common()
	if v, ok := commonInt(common, "pfID"); ok {
		p.PfID = v
	}
	if v, ok := commonString(common, "version"); ok {
		p.Version = v
	}
	if v, ok := commonString(common, "bundleIdentifier"); ok {
		p.BundleIdentifier = v
	}
	if v, ok := commonString(common, "deviceID"); ok {
		p.DeviceID = v
	}
	return p
}

func commonInt(m map[string]interface{}, key string) (int64, bool) {
	switch v := m[key].(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i, true
		}
	case float64:
		return int64(v), true
	case int:
		return int64(v), true
	case int64:
		return v, true
	case string:
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i, true
		}
	}
	return 0, false
}

func commonString(m map[string]interface{}, key string) (string, bool) {
	switch v := m[key].(type) {
	case nil:
		return "", false
	case string:
		return v, v != ""
	case json.Number:
		return v.String(), true
	default:
		return fmt.Sprint(v), true
	}
}

// BaseMessage builds the fields every authenticated message starts with.
// A roleID that is not numeric is sent as 0.
func BaseMessage(acc *data.Account, p ClientProfile) *game.Payload {
	roleID, _ := strconv.ParseInt(acc.RoleID, 10, 64)
	return game.NewPayload().
		Set("authKey", acc.AuthKey).
		Set("accountName", acc.AccountName).
		Set("roleID", roleID).
		Set("pfID", p.PfID).
		Set("deviceID", p.DeviceID).
		Set("bundleIdentifier", p.BundleIdentifier).
		Set("version", p.Version)
}
