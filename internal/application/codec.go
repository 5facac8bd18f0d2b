package application

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ericfisherdev/streetpass/internal/domain/model"
)

// Storage keys. The "-3" suffix is the persisted layout version.
const (
	HrefStoreKey = "rel-me-href-data-store-3"
	IconStateKey = "icon-state-3"
)

// profileDataJSON is the persisted form of model.ProfileData.
type profileDataJSON struct {
	Type       string `json:"type"`
	Account    string `json:"account,omitempty"`
	ProfileURL string `json:"profileUrl,omitempty"`
	Avatar     string `json:"avatar,omitempty"`
}

// hrefRecordJSON is the persisted form of model.HrefRecord. Timestamps are
// unix milliseconds.
type hrefRecordJSON struct {
	ProfileData profileDataJSON `json:"profileData"`
	WebsiteURL  string          `json:"websiteUrl"`
	ViewedAt    int64           `json:"viewedAt"`
	RelMeHref   string          `json:"relMeHref"`
	Hidden      bool            `json:"hidden,omitempty"`
	UpdatedAt   int64           `json:"updatedAt,omitempty"`
}

// iconStateJSON is the persisted form of model.IconState.
type iconStateJSON struct {
	State       string `json:"state"`
	UnreadCount int    `json:"unreadCount,omitempty"`
}

// HrefStoreCodec persists the href store as an ordered list of
// [relMeHref, record] pairs. Unparseable data decodes to an empty store and
// individual unparseable entries are dropped, so Decode never fails.
func HrefStoreCodec() Codec[*model.HrefStore] {
	return Codec[*model.HrefStore]{
		Decode: decodeHrefStore,
		Encode: encodeHrefStore,
	}
}

func decodeHrefStore(raw []byte) (*model.HrefStore, error) {
	store := model.NewHrefStore()
	if len(raw) == 0 {
		return store, nil
	}

	var pairs [][]json.RawMessage
	if err := json.Unmarshal(raw, &pairs); err != nil {
		return store, nil
	}

	for _, pair := range pairs {
		if len(pair) != 2 {
			continue
		}
		var key string
		if err := json.Unmarshal(pair[0], &key); err != nil || key == "" {
			continue
		}
		var rec hrefRecordJSON
		if err := json.Unmarshal(pair[1], &rec); err != nil {
			continue
		}
		store.Put(fromHrefRecordJSON(key, rec))
	}

	return store, nil
}

func encodeHrefStore(store *model.HrefStore) ([]byte, error) {
	records := store.Records()
	pairs := make([][2]any, 0, len(records))
	for _, r := range records {
		pairs = append(pairs, [2]any{r.RelMeHref, toHrefRecordJSON(r)})
	}

	data, err := json.Marshal(pairs)
	if err != nil {
		return nil, fmt.Errorf("marshal href store: %w", err)
	}
	return data, nil
}

func fromHrefRecordJSON(key string, rec hrefRecordJSON) model.HrefRecord {
	r := model.HrefRecord{
		RelMeHref:   key,
		ProfileData: fromProfileDataJSON(rec.ProfileData),
		WebsiteURL:  rec.WebsiteURL,
		ViewedAt:    time.UnixMilli(rec.ViewedAt).UTC(),
		Hidden:      rec.Hidden,
	}
	if rec.UpdatedAt != 0 {
		r.UpdatedAt = time.UnixMilli(rec.UpdatedAt).UTC()
	}
	return r
}

func toHrefRecordJSON(r model.HrefRecord) hrefRecordJSON {
	rec := hrefRecordJSON{
		ProfileData: toProfileDataJSON(r.ProfileData),
		WebsiteURL:  r.WebsiteURL,
		ViewedAt:    r.ViewedAt.UnixMilli(),
		RelMeHref:   r.RelMeHref,
		Hidden:      r.Hidden,
	}
	if !r.UpdatedAt.IsZero() {
		rec.UpdatedAt = r.UpdatedAt.UnixMilli()
	}
	return rec
}

// fromProfileDataJSON treats anything that is not a well-formed profile as
// NotProfile.
func fromProfileDataJSON(p profileDataJSON) model.ProfileData {
	if model.ProfileKind(p.Type) != model.ProfileKindProfile || p.ProfileURL == "" {
		return model.NotProfile()
	}
	return model.NewProfile(p.Account, p.ProfileURL, p.Avatar)
}

func toProfileDataJSON(p model.ProfileData) profileDataJSON {
	if !p.IsProfile() {
		return profileDataJSON{Type: string(model.ProfileKindNotProfile)}
	}
	return profileDataJSON{
		Type:       string(model.ProfileKindProfile),
		Account:    p.Account,
		ProfileURL: p.ProfileURL,
		Avatar:     p.Avatar,
	}
}

// IconStateCodec persists model.IconState. Missing or unparseable data, or
// an unknown state, decodes to model.DefaultIconState().
func IconStateCodec() Codec[model.IconState] {
	return Codec[model.IconState]{
		Decode: decodeIconState,
		Encode: encodeIconState,
	}
}

func decodeIconState(raw []byte) (model.IconState, error) {
	if len(raw) == 0 {
		return model.DefaultIconState(), nil
	}

	var v iconStateJSON
	if err := json.Unmarshal(raw, &v); err != nil {
		return model.DefaultIconState(), nil
	}

	switch status := model.IconStatus(v.State); status {
	case model.IconStatusOn, model.IconStatusOff:
		return model.IconState{State: status, UnreadCount: max(v.UnreadCount, 0)}, nil
	default:
		return model.DefaultIconState(), nil
	}
}

func encodeIconState(s model.IconState) ([]byte, error) {
	data, err := json.Marshal(iconStateJSON{State: string(s.State), UnreadCount: s.UnreadCount})
	if err != nil {
		return nil, fmt.Errorf("marshal icon state: %w", err)
	}
	return data, nil
}
