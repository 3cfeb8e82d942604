package http

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"learnloop-attempt-service/internal/app"
	"learnloop-attempt-service/internal/domain"
)

type WSHandler struct {
	service  *app.AttemptService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.AttemptService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	QuestionIndex   int   `json:"questionIndex"`
	SelectedOptions []int `json:"selectedOptions"`
}

type submitPayload struct {
	Confirm bool `json:"confirm"`
}

type answerAck struct {
	QuestionIndex   int `json:"questionIndex"`
	UnansweredCount int `json:"unansweredCount"`
	ProgressPercent int `json:"progressPercent"`
}

type confirmSubmit struct {
	UnansweredCount   int   `json:"unansweredCount"`
	UnansweredIndices []int `json:"unansweredIndices"`
}

type remainingPayload struct {
	Seconds   int  `json:"seconds"`
	Unlimited bool `json:"unlimited"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS runs one attempt over a websocket: the connection starts the
// attempt, answer/submit/abandon/remaining messages drive the session, and a
// timer-forced submission is pushed to the client as an informational event.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	userID := r.URL.Query().Get("userId")
	if quizID == "" || userID == "" {
		http.Error(w, "missing quizId or userId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	started, err := h.service.StartAttempt(r.Context(), quizID, userID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	attemptID := started.AttemptID

	outcomes, cancel, err := h.service.WatchAttempt(r.Context(), attemptID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer cancel()

	// Walking away from the socket mid-attempt abandons it.
	defer func() {
		_ = h.service.AbandonAttempt(r.Context(), attemptID)
	}()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	outcomesDone := make(chan struct{})

	// The submitted event has two producers (the manual reply and the
	// completion watch); exactly one of them reaches the client.
	var submittedOnce sync.Once
	sendSubmitted := func(out app.Outcome) {
		submittedOnce.Do(func() {
			select {
			case send <- outboundMessage[any]{Type: "submitted", Payload: out}:
			case <-closeSignals:
			}
		})
	}

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(outcomesDone)
		select {
		case out, ok := <-outcomes:
			if ok {
				sendSubmitted(out)
			}
		case <-closeSignals:
		}
	}()

	send <- outboundMessage[any]{Type: "started", Payload: started}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}}
				continue
			}
			unanswered, err := h.service.RecordAnswer(r.Context(), attemptID, payload.QuestionIndex, payload.SelectedOptions)
			if err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
				continue
			}
			total := started.QuestionCount
			send <- outboundMessage[any]{Type: "answerAck", Payload: answerAck{
				QuestionIndex:   payload.QuestionIndex,
				UnansweredCount: unanswered,
				ProgressPercent: ((total - unanswered) * 100) / total,
			}}
		case "submit":
			var payload submitPayload
			if len(inbound.Payload) > 0 {
				if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
					send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid submit payload"}}
					continue
				}
			}
			if !payload.Confirm {
				unanswered, err := h.service.UnansweredIndices(r.Context(), attemptID)
				if err == nil && len(unanswered) > 0 {
					send <- outboundMessage[any]{Type: "confirmSubmit", Payload: confirmSubmit{
						UnansweredCount:   len(unanswered),
						UnansweredIndices: unanswered,
					}}
					continue
				}
			}
			out, err := h.service.SubmitAttempt(r.Context(), attemptID, domain.SubmitManual)
			if err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
				continue
			}
			sendSubmitted(out)
		case "remaining":
			seconds, unlimited, err := h.service.RemainingTime(r.Context(), attemptID)
			if err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
				continue
			}
			send <- outboundMessage[any]{Type: "remaining", Payload: remainingPayload{Seconds: seconds, Unlimited: unlimited}}
		case "abandon":
			if err := h.service.AbandonAttempt(r.Context(), attemptID); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
				continue
			}
			send <- outboundMessage[any]{Type: "abandoned", Payload: struct{}{}}
		default:
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
		}
	}

	close(closeSignals)
	<-outcomesDone
	close(send)
	<-writerDone
}
