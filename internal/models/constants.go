package models

// NotesSourceID identifies chunks bootstrapped from the built-in notes file.
const NotesSourceID = "ww2-history-notes"

// NotesMissingMessage is returned by the keyword index when the notes file
// cannot be read. The aggregator checks for it and keeps it out of evidence.
const NotesMissingMessage = "WW2 history notes file not found. Please check data/ww2_history_notes.txt."

// NoResultsMessage is the vector store's sentinel for an empty or fruitless query.
const NoResultsMessage = "No relevant information found in the notes."

const (
	ResearchPersona = `You are a careful historian specializing in World War II. ` +
		`You search trusted course notes and produce concise, factual summaries.`

	TutorPersona = `You are a patient teacher helping students understand 20th-century history. ` +
		`You turn research notes into easy-to-understand explanations, examples, and analogies.`

	QuizAuthorPersona = `You are an experienced history teacher who writes fair, well-constructed ` +
		`multiple-choice quizzes. You never reveal an answer next to its question.`
)

var ResearchPromptTemplate = `%sUse the retrieved evidence below to research the student's question: '%s'.
Focus on accurate World War II facts, key events, causes, and consequences.

Retrieved evidence:
%s

Summarize your findings in bullet points. Maximum 6 bullets, each under 20 words.
If the evidence is empty or insufficient, say so in a single bullet.`

var ComposePromptTemplate = `%s%s

Research summary:
%s

The student's question was: '%s'.
If there is uncertainty or missing information, state that honestly.`

const (
	RegularAnswerInstruction = `Using the researcher's summary, answer the student's question clearly and directly. ` +
		`Give a short explanation with enough detail to understand the key idea.`

	SummaryInstruction = `Using the researcher's summary, provide a short summary of the topic. ` +
		`Highlight only the most important points. Aim for 4-7 concise bullet points.`

	ExplanationInstruction = `Using the researcher's summary, explain the topic step by step as if to a beginner. ` +
		`Use simple language, give context, and define any difficult terms.`

	QuizInstruction = `Using the researcher's summary, create a quiz about the topic. ` +
		`Generate exactly 5 multiple-choice questions with 4 options each (A, B, C, D). ` +
		`After listing all the questions, provide the correct answers in a separate section at the end.`
)

// VisionPrompt is the single-shot captioning instruction for uploaded images.
const VisionPrompt = `What is shown in this image? If it is a historical vehicle or object from WW2, ` +
	`identify it specifically (e.g., 'Panzer II'). Provide a brief description.`
