package model

// ProfileKind discriminates the ProfileData union.
type ProfileKind string

const (
	ProfileKindProfile    ProfileKind = "profile"
	ProfileKindNotProfile ProfileKind = "notProfile"
)

// IconStatus represents whether the toolbar icon is lit.
type IconStatus string

const (
	IconStatusOn  IconStatus = "on"
	IconStatusOff IconStatus = "off"
)

// MessageName identifies an inbound message kind.
type MessageName string

const (
	MessageHrefPayload        MessageName = "HREF_PAYLOAD"
	MessageFetchProfileUpdate MessageName = "FETCH_PROFILE_UPDATE"
)
