package ops

import (
	"encoding/json"

	"github.com/hanul-clinic/clinicboard/internal/config"
	"github.com/hanul-clinic/clinicboard/internal/notice"
	"github.com/hanul-clinic/clinicboard/internal/richtext"
)

// PreviewInput contains parameters for the Preview operation.
type PreviewInput struct {
	Content       json.RawMessage
	ContentFormat string
}

// PreviewOutput is the rendering of a document that was not stored.
type PreviewOutput struct {
	Format    notice.Format `json:"content_format"`
	HTML      string        `json:"html"`
	PlainText string        `json:"plain_text"`
	Excerpt   string        `json:"excerpt"`
}

// Preview converts a document exactly as Store would, without persisting it.
func Preview(cfg *config.Config, input PreviewInput) (*PreviewOutput, error) {
	content, err := prepareContent(cfg, input.Content, input.ContentFormat)
	if err != nil {
		return nil, err
	}
	return &PreviewOutput{
		Format:    content.format,
		HTML:      content.html,
		PlainText: content.plainText,
		Excerpt:   richtext.Excerpt(content.plainText, excerptChars(cfg)),
	}, nil
}
