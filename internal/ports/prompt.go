package ports

import "context"

type PromptData struct {
	SrcLang string
	TgtLang string
	Text    string
}

type PromptRenderer interface {
	Render(ctx context.Context, name string, data PromptData) (string, error)
}
