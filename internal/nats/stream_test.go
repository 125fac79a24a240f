package nats

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Santiagopro2002/Denuncias-gad-api/internal/model"
)

func TestSubjects(t *testing.T) {
	assert.Equal(t, "denuncias.conv.c1.turn.citizen", TurnSubject("c1", model.SenderCitizen))
	assert.Equal(t, "denuncias.conv.c1.turn.assistant", TurnSubject("c1", model.SenderAssistant))
	assert.Equal(t, "denuncias.event.complaint_created.u1", EventSubject(model.EventTypeComplaintCreated, "u1"))
}
