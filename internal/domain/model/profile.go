package model

// ProfileData is the classification result for a rel=me href. Kind selects
// the variant; Account, ProfileURL and Avatar are only meaningful for
// ProfileKindProfile.
type ProfileData struct {
	Kind       ProfileKind
	Account    string // e.g. "alice@example.social"; empty when the subject had no acct: prefix.
	ProfileURL string
	Avatar     string
}

// NotProfile returns the negative classification.
func NotProfile() ProfileData {
	return ProfileData{Kind: ProfileKindNotProfile}
}

// NewProfile returns a positive classification.
func NewProfile(account, profileURL, avatar string) ProfileData {
	return ProfileData{
		Kind:       ProfileKindProfile,
		Account:    account,
		ProfileURL: profileURL,
		Avatar:     avatar,
	}
}

// IsProfile reports whether p is a positive classification.
func (p ProfileData) IsProfile() bool {
	return p.Kind == ProfileKindProfile
}
