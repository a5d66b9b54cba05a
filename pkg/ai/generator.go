package ai

import "context"

// TextGenerator 根据 system / user 提示词生成文本
type TextGenerator interface {
	GenerateText(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
