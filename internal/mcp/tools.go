package mcp

import "github.com/mark3labs/mcp-go/mcp"

func sessionID() mcp.ToolOption {
	return mcp.WithString("session_id",
		mcp.Required(),
		mcp.Description("Conversation id. Every call in one conversation must use the same id."),
	)
}

const updateHint = " Pass only the fields the user just gave; omitted fields are left alone. Speak the returned text."

var orderUpdateToolDef = mcp.NewTool("order_update",
	mcp.WithDescription("Record part of a coffee order."+updateHint+" When the order is complete it is saved and the confirmation is returned."),
	sessionID(),
	mcp.WithString("name", mcp.Description("Customer name for the order.")),
	mcp.WithString("drink_type", mcp.Description("Drink, e.g. latte, espresso, cappuccino, americano.")),
	mcp.WithString("size", mcp.Description("small, medium or large (tall, grande and venti are understood).")),
	mcp.WithString("milk", mcp.Description("Milk type, or an empty string / \"black\" for no milk.")),
	mcp.WithArray("extras", mcp.Description("Extras such as sugar or vanilla. An empty array means no extras."), mcp.WithStringItems()),
)

var orderPromptToolDef = mcp.NewTool("order_prompt",
	mcp.WithDescription("Return the question for the next missing order field without changing anything."),
	sessionID(),
)

var orderFinalizeToolDef = mcp.NewTool("order_finalize",
	mcp.WithDescription("Save the order and return the confirmation. Fails with a clarification if fields are missing."),
	sessionID(),
)

var leadCaptureToolDef = mcp.NewTool("lead_capture",
	mcp.WithDescription("Record lead details the visitor has shared."+updateHint),
	sessionID(),
	mcp.WithString("name", mcp.Description("Visitor's name.")),
	mcp.WithString("company", mcp.Description("Company the visitor represents.")),
	mcp.WithString("email", mcp.Description("Follow-up email address.")),
	mcp.WithString("role", mcp.Description("Role or designation.")),
	mcp.WithString("use_case", mcp.Description("Product or solution of interest.")),
	mcp.WithString("team_size", mcp.Description("Approximate number of users.")),
	mcp.WithString("timeline", mcp.Description("Purchase or implementation timeline.")),
)

var leadFAQToolDef = mcp.NewTool("lead_faq",
	mcp.WithDescription("Answer a product, pricing or company question from the approved FAQ only."),
	sessionID(),
	mcp.WithString("topic", mcp.Required(), mcp.Description("Topic of the question, e.g. pricing, free tier.")),
)

var leadTopicsToolDef = mcp.NewTool("lead_topics",
	mcp.WithDescription("List the FAQ topics that have approved answers."),
	sessionID(),
)

var leadSummaryToolDef = mcp.NewTool("lead_summary",
	mcp.WithDescription("End the call: save whatever lead details were captured and return the closing summary."),
	sessionID(),
)

var wellnessUpdateToolDef = mcp.NewTool("wellness_update",
	mcp.WithDescription("Record part of a daily check-in. Free text is fine: mood and energy are extracted from it."+updateHint),
	sessionID(),
	mcp.WithString("mood", mcp.Description("How the user says they feel.")),
	mcp.WithString("energy", mcp.Description("Energy level, 1 to 5 or in words.")),
	mcp.WithString("objectives", mcp.Description("One to three goals, separated by commas.")),
)

var wellnessFinalizeToolDef = mcp.NewTool("wellness_finalize",
	mcp.WithDescription("Save the check-in and return the recap."),
	sessionID(),
)

var wellnessFeedbackToolDef = mcp.NewTool("wellness_feedback",
	mcp.WithDescription("Record whether the user followed through on one of their objectives."),
	sessionID(),
	mcp.WithString("objective", mcp.Required(), mcp.Description("Objective text or a word from it.")),
	mcp.WithBoolean("completed", mcp.Required(), mcp.Description("True if the user did it.")),
)

var wellnessContextToolDef = mcp.NewTool("wellness_context",
	mcp.WithDescription("Summarize the previous check-in, if any. Call at the start of a conversation."),
	sessionID(),
)

var tutorModeToolDef = mcp.NewTool("tutor_mode",
	mcp.WithDescription("Switch the learning mode and optionally the concept, and return the opening line."),
	sessionID(),
	mcp.WithString("mode", mcp.Required(), mcp.Description("learn, quiz or teach_back.")),
	mcp.WithString("concept_id", mcp.Description("Concept id from tutor_concepts. Omit to keep the current concept.")),
)

var tutorConceptsToolDef = mcp.NewTool("tutor_concepts",
	mcp.WithDescription("List the available concepts with their ids."),
	sessionID(),
)

var tutorFeedbackToolDef = mcp.NewTool("tutor_feedback",
	mcp.WithDescription("Record whether the student's answer was correct and speak the feedback."),
	sessionID(),
	mcp.WithString("concept_id", mcp.Description("Concept being practiced. Defaults to the current one.")),
	mcp.WithBoolean("is_correct", mcp.Required(), mcp.Description("Whether the answer was correct.")),
	mcp.WithString("feedback", mcp.Description("Specific feedback to speak.")),
)

var tutorProgressToolDef = mcp.NewTool("tutor_progress",
	mcp.WithDescription("Return the current mode, concept history and mastery scores."),
	sessionID(),
)

var adventureRollToolDef = mcp.NewTool("adventure_roll",
	mcp.WithDescription("Roll a die. Low rolls raise fear, high rolls calm it, high fear drains HP."),
	sessionID(),
	mcp.WithNumber("sides", mcp.Description("Number of sides, default 20.")),
)

var adventureSheetToolDef = mcp.NewTool("adventure_sheet",
	mcp.WithDescription("Show the character sheet."),
	sessionID(),
)

var adventureInventoryToolDef = mcp.NewTool("adventure_inventory",
	mcp.WithDescription("Show the inventory."),
	sessionID(),
)

var adventureTakeToolDef = mcp.NewTool("adventure_take",
	mcp.WithDescription("Add an item to the inventory."),
	sessionID(),
	mcp.WithString("item", mcp.Required(), mcp.Description("Item name.")),
)

var adventureDropToolDef = mcp.NewTool("adventure_drop",
	mcp.WithDescription("Remove an item from the inventory."),
	sessionID(),
	mcp.WithString("item", mcp.Required(), mcp.Description("Item name.")),
)

var adventureEventToolDef = mcp.NewTool("adventure_event",
	mcp.WithDescription("Maybe trigger a horror event. The more afraid the player, the likelier."),
	sessionID(),
)

var adventureSaveToolDef = mcp.NewTool("adventure_save",
	mcp.WithDescription("Save the game."),
	sessionID(),
)

var adventureLoadToolDef = mcp.NewTool("adventure_load",
	mcp.WithDescription("Load the saved game."),
	sessionID(),
)

var sessionEndToolDef = mcp.NewTool("session_end",
	mcp.WithDescription("End a conversation. Unsaved records are discarded."),
	sessionID(),
)

var journalListToolDef = mcp.NewTool("journal_list",
	mcp.WithDescription("List saved records, most recent last."),
	mcp.WithString("persona", mcp.Description("order, lead or wellness. Omit for all.")),
	mcp.WithNumber("limit", mcp.Description("Keep only the most recent entries.")),
)
