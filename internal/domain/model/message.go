package model

// Message is an inbound request envelope. The concrete types are
// HrefPayload and FetchProfileUpdate.
type Message interface {
	Name() MessageName
}

// HrefPayload reports a rel=me link seen on tabURL.
type HrefPayload struct {
	RelMeHref string
	TabURL    string
}

// Name implements Message.
func (HrefPayload) Name() MessageName { return MessageHrefPayload }

// FetchProfileUpdate asks whether a stored profile still resolves.
type FetchProfileUpdate struct {
	RelMeHref string
}

// Name implements Message.
func (FetchProfileUpdate) Name() MessageName { return MessageFetchProfileUpdate }
