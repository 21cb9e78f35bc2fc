package avito

import "encoding/json"

// flexID accepts both string and numeric JSON ids; the messenger API
// is not consistent about which one it returns.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

// Chat is one messenger conversation as returned by the chats listing.
type Chat struct {
	ID          flexID       `json:"id"`
	URL         string       `json:"url"`
	Context     ChatContext  `json:"context"`
	LastMessage *ChatMessage `json:"last_message"`
}

// ChatContext carries the listing the conversation is attached to.
type ChatContext struct {
	Value ChatContextValue `json:"value"`
}

// ChatContextValue is the listing payload inside the chat context.
type ChatContextValue struct {
	Title       string       `json:"title"`
	URL         string       `json:"url"`
	PriceString string       `json:"price_string"`
	Location    ChatLocation `json:"location"`
}

// ChatLocation is the listing's location block.
type ChatLocation struct {
	Title string `json:"title"`
}

// ChatMessage is one message inside a conversation.
type ChatMessage struct {
	ID        flexID         `json:"id"`
	Direction string         `json:"direction"`
	AuthorID  flexID         `json:"author_id"`
	Content   MessageContent `json:"content"`
}

// MessageContent holds the text payload of a message.
type MessageContent struct {
	Text string `json:"text"`
}

// chatsResponse is the envelope around the chats listing.
type chatsResponse struct {
	Chats []Chat `json:"chats"`
}

// tokenResponse is the OAuth client-credentials grant response.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// storedToken is the on-disk token cache format.
type storedToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresAt   int64  `json:"expires_at"`
}
