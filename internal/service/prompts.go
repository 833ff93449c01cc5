package service

import "fmt"

// diffSummarySystemPrompt teaches the model the unified-diff format before
// asking for a summary, so added/removed lines get attributed correctly.
const diffSummarySystemPrompt = `You are an expert programmer summarising a git diff.
Reminders about the git diff format:
For every file there are a few metadata lines, like:
` + "```" + `
diff --git a/lib/index.js b/lib/index.js
index aadf691..bfef603 100644
--- a/lib/index.js
+++ b/lib/index.js
` + "```" + `
This means that lib/index.js was modified in this commit. Note that this is only an example.
Then there is a specifier of the lines that were modified.
A line starting with + means it was added.
A line starting with - means that line was deleted.
A line that starts with neither + nor - is code given for context and better understanding; it is not part of the diff.
Write a concise summary of the change. Include the modified file names in square brackets only when at most two files changed in that logical change; omit file names when more than two files are involved. Do not invent changes that are not in the diff.`

// diffSummaryUserPrompt wraps the raw diff. The diff goes in verbatim, with
// no truncation, because the model needs the full text to attribute changes.
func diffSummaryUserPrompt(diff string) string {
	return fmt.Sprintf("Please summarise the following diff:\n\n%s", diff)
}

// fileSummarySystemPrompt positions the model as a senior engineer writing
// onboarding notes for a junior engineer.
const fileSummarySystemPrompt = `You are a senior software engineer who specialises in onboarding junior engineers onto projects. You explain the purpose of a source file in at most 100 words, in plain language, focusing on what the file does within the project rather than line-by-line detail.`

// fileSummaryUserPrompt asks for the summary of one (possibly truncated)
// file.
func fileSummaryUserPrompt(path, content string) string {
	return fmt.Sprintf("You are onboarding a junior engineer and explaining to them the purpose of the file %s.\nHere is the code:\n---\n%s\n---\nGive a summary of no more than 100 words of the code above.", path, content)
}

// answerSystemPrompt grounds the model on retrieved context only: it must
// state insufficiency rather than fabricate, and format code as code.
const answerSystemPrompt = `You are an AI code assistant answering questions about a codebase. Your audience is a technical intern.
Answer using only the provided context block. If the context does not contain the answer, say "I'm sorry, but I don't know the answer to that question based on the provided context." Do not invent anything or apologise further.
Use markdown, with code snippets in fenced code blocks where relevant. Be detailed and precise, and cite file names from the context when referencing code.`

// answerUserPrompt assembles the grounded prompt from the context block and
// the question.
func answerUserPrompt(contextBlock, question string) string {
	return fmt.Sprintf("START CONTEXT BLOCK\n%s\nEND OF CONTEXT BLOCK\n\nSTART QUESTION\n%s\nEND OF QUESTION", contextBlock, question)
}
