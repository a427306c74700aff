package api

import (
	"fmt"
	"sort"

	"github.com/tOgg1/thinkchat/internal/models"
)

// WireChild is a row from GET /api/children.
type WireChild struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// WireMessage is a row from GET /api/messages/{id}.
type WireMessage struct {
	ID      int64  `json:"id"`
	Message string `json:"message"`
	From    string `json:"from"`
	Created string `json:"created"`
}

// WirePostResponse is the body of a successful POST /api/messages/{id}.
type WirePostResponse struct {
	ID int64 `json:"id"`
}

// WireAuthResponse is the body of POST /api/authenticate.
type WireAuthResponse struct {
	Token string `json:"token,omitempty"`
	Error string `json:"error,omitempty"`
}

func (w WireChild) toModel() models.Conversation {
	return models.Conversation{ID: w.ID, FirstName: w.FirstName, LastName: w.LastName}
}

func (w WireMessage) toModel() (models.Message, error) {
	created, err := ParseServerTime(w.Created)
	if err != nil {
		return models.Message{}, fmt.Errorf("message %d: %w", w.ID, err)
	}
	msg := models.Message{ID: w.ID, Text: w.Message, Sender: models.Sender(w.From), CreatedAt: created}
	if err := msg.Validate(); err != nil {
		return models.Message{}, fmt.Errorf("message %d: %w", w.ID, err)
	}
	return msg, nil
}

// decodeMessages converts and sorts ascending by created. Equal timestamps
// keep server order.
func decodeMessages(rows []WireMessage) ([]models.Message, error) {
	out := make([]models.Message, 0, len(rows))
	for _, row := range rows {
		msg, err := row.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, msg)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
