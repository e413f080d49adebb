package review

import (
	"fmt"
	"strings"

	"github.com/Av0cat0/tavily-rag-pipeline/internal/domain"
)

const critiqueTemplate = `You are a helpful assistant tasked with reviewing an AI-generated response.
Here is the original query:
%s

Here is the context provided for answering:
%s

And here is the response to review:
%s

Please check the response for accuracy, clarity, and completeness. If the response is already excellent, return the word ok.
Otherwise, return the word inaccurate.`

func critiquePrompt(q domain.Query, answer, renderedContext string) string {
	return fmt.Sprintf(critiqueTemplate, q, renderedContext, answer)
}

// parseVerdict maps the model reply to a verdict. Anything that does not
// mention "inaccurate" accepts the answer, so an off-script reply can never
// trigger another revision round.
func parseVerdict(reply string) domain.Verdict {
	if strings.Contains(strings.ToLower(reply), "inaccurate") {
		return domain.VerdictInaccurate
	}
	return domain.VerdictAccurate
}
