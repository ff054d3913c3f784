// Package prompt assembles the instructions sent to the generation service.
package prompt

import (
	"strings"

	"github.com/temirov/readmegen/internal/budget"
)

// SystemPrompt frames the model as a README author.
const SystemPrompt = "You are an expert technical writer specializing in creating high-quality README.md files for software projects."

const (
	instructionText = `Based on the entire codebase provided below, generate a comprehensive and well-structured README.md file in Markdown format.

The README should include the following sections:
1.  **Project Title**: An appropriate and catchy title for the project.
2.  **Description**: A detailed explanation of what the project does, its purpose, and its key features.
3.  **Features**: A bulleted list of the main functionalities.
4.  **Installation**: A clear, step-by-step guide on how to install and set up the project. Provide commands in code blocks.
5.  **Usage**: Instructions on how to run the application and examples of how to use it.`

	// TruncationNotice is inserted when the codebase was cut to fit the context budget.
	TruncationNotice = `Note: the codebase is too large to include in full and has been truncated. Only the beginning of the codebase is shown below, and the final file may be cut off mid-content. Base the README on the code that is present and do not invent details about the omitted parts.`

	codebaseHeading = "Here is the codebase:"
)

// BuildUserPrompt embeds the budgeted codebase text in the README instruction.
func BuildUserPrompt(context budget.Context) string {
	var builder strings.Builder
	builder.WriteString(instructionText)
	builder.WriteString("\n\n")
	if context.Truncated {
		builder.WriteString(TruncationNotice)
		builder.WriteString("\n\n")
	}
	builder.WriteString(codebaseHeading)
	builder.WriteString("\n")
	builder.WriteString(context.Text)
	return builder.String()
}
