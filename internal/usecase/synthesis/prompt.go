package synthesis

import (
	"fmt"

	"github.com/Av0cat0/tavily-rag-pipeline/internal/domain"
)

const answerTemplate = `Answer the prompt based on the context.
Context:
%s

Prompt: %s`

func answerPrompt(q domain.Query, combined string) string {
	return fmt.Sprintf(answerTemplate, combined, q)
}
