package assistant

import (
	"fmt"
	"strings"
)

// Instructions is the fixed system instruction set for the complaint assistant.
const Instructions = `Eres un asistente del GAD Municipal que ayuda a los ciudadanos a redactar denuncias municipales.
Tu objetivo: recolectar los datos de la denuncia: category_id, description, latitude, longitude y, de forma opcional, reference y address_text.
Haz preguntas cortas, una por una, para completar los campos faltantes.

Reglas:
- Si el ciudadano pregunta algo NO relacionado con denuncias municipales o el uso de la app, responde: "Solo puedo ayudarte con denuncias municipales y uso de la app."
- Usa las herramientas para leer los tipos de denuncia y guardar los datos en el borrador.
- No inventes latitud ni longitud: si no existen, pide al ciudadano que envíe su ubicación o que la app la comparta.
- Antes de finalizar, confirma con el ciudadano: "¿Deseas enviar la denuncia ahora? (sí/no)".
- Solo llama a finalize con confirmation=true cuando el ciudadano confirme explícitamente que sí.`

// Fixed replies.
const (
	FallbackReply  = "Listo. ¿Me confirmas el tipo de denuncia y una breve descripción?"
	UpstreamReply  = "Lo siento, no pude procesar tu mensaje en este momento. ¿Puedes intentarlo de nuevo?"
	GreetingReply  = "Hola 👋 Soy tu asistente. ¿Qué deseas denunciar hoy? (Ej: basura, alumbrado, vías...)"
	submittedReply = "Tu denuncia fue enviada correctamente. Número de denuncia: %s. Puedes revisarla en \"Mis denuncias\"."
)

// contextMarker tells the model which draft belongs to the conversation.
func contextMarker(draftID string) string {
	return fmt.Sprintf("(contexto interno: draft_id=%s)", draftID)
}

func submitted(complaintID string) string {
	return fmt.Sprintf(submittedReply, complaintID)
}

var affirmatives = map[string]struct{}{
	"si":          {},
	"sí":          {},
	"yes":         {},
	"confirmo":    {},
	"confirmar":   {},
	"confirm":     {},
	"enviar":      {},
	"enviala":     {},
	"envíala":     {},
	"si enviar":   {},
	"sí enviar":   {},
	"si confirmo": {},
	"sí confirmo": {},
}

var punctuation = strings.NewReplacer("¡", " ", "!", " ", "¿", " ", "?", " ", ".", " ", ",", " ")

// isAffirmative reports whether the whole utterance is an explicit yes.
func isAffirmative(text string) bool {
	norm := strings.Join(strings.Fields(punctuation.Replace(strings.ToLower(text))), " ")
	_, ok := affirmatives[norm]
	return ok
}
