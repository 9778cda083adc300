package mcp

import "github.com/mark3labs/mcp-go/mcp"

const contentDescription = "Editor document: a delta object {\"ops\":[...]} or a content tree {\"type\":\"doc\",\"content\":[...]}. A JSON string holding either form is also accepted."

var storeToolDef = mcp.NewTool("notice_store",
	mcp.WithDescription("Create a notice. Content is converted to sanitized HTML and plain text on write. New notices are drafts unless status is \"published\"."),
	mcp.WithDestructiveHintAnnotation(false),
	mcp.WithString("title",
		mcp.Required(),
		mcp.Description("Notice title"),
	),
	mcp.WithObject("content",
		mcp.Description(contentDescription),
	),
	mcp.WithString("content_format",
		mcp.Description("Document format; detected from content when omitted"),
		mcp.Enum("delta", "tree"),
	),
	mcp.WithString("category",
		mcp.Description("Category slug"),
	),
	mcp.WithString("status",
		mcp.Description("Initial status (default: draft)"),
		mcp.Enum("draft", "published"),
	),
	mcp.WithBoolean("pinned",
		mcp.Description("Pin the notice above the others"),
	),
	mcp.WithString("author",
		mcp.Description("Display name of the author"),
	),
)

var fetchToolDef = mcp.NewTool("notice_fetch",
	mcp.WithDescription("Fetch one notice by id, drafts included. Does not count as a view."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("id",
		mcp.Required(),
		mcp.Description("Notice id"),
	),
	mcp.WithBoolean("include_deleted",
		mcp.Description("Return the notice even if it was deleted"),
	),
	mcp.WithBoolean("include_content",
		mcp.Description("Include the source document and plain text (default: true)"),
	),
)

var updateToolDef = mcp.NewTool("notice_update",
	mcp.WithDescription("Update fields of a notice. Omitted fields are kept. Replacing content re-renders the HTML."),
	mcp.WithIdempotentHintAnnotation(true),
	mcp.WithString("id",
		mcp.Required(),
		mcp.Description("Notice id"),
	),
	mcp.WithString("title",
		mcp.Description("New title"),
	),
	mcp.WithObject("content",
		mcp.Description(contentDescription+" null clears the body."),
	),
	mcp.WithString("content_format",
		mcp.Description("Document format; detected from content when omitted"),
		mcp.Enum("delta", "tree"),
	),
	mcp.WithString("category",
		mcp.Description("Category slug; empty string removes the category"),
	),
	mcp.WithString("status",
		mcp.Description("New status"),
		mcp.Enum("draft", "published"),
	),
	mcp.WithBoolean("pinned",
		mcp.Description("Pin or unpin"),
	),
	mcp.WithString("author",
		mcp.Description("Display name of the author"),
	),
)

var deleteToolDef = mcp.NewTool("notice_delete",
	mcp.WithDescription("Soft-delete a notice. It disappears from the board until purged."),
	mcp.WithDestructiveHintAnnotation(true),
	mcp.WithString("id",
		mcp.Required(),
		mcp.Description("Notice id"),
	),
)

var publishToolDef = mcp.NewTool("notice_publish",
	mcp.WithDescription("Publish a notice on the public board."),
	mcp.WithIdempotentHintAnnotation(true),
	mcp.WithString("id",
		mcp.Required(),
		mcp.Description("Notice id"),
	),
)

var unpublishToolDef = mcp.NewTool("notice_unpublish",
	mcp.WithDescription("Return a published notice to draft."),
	mcp.WithIdempotentHintAnnotation(true),
	mcp.WithString("id",
		mcp.Required(),
		mcp.Description("Notice id"),
	),
)

var listToolDef = mcp.NewTool("notice_list",
	mcp.WithDescription("List notice summaries with excerpts, pinned first, then newest."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("category",
		mcp.Description("Filter by category slug"),
	),
	mcp.WithString("status",
		mcp.Description("Filter by status"),
		mcp.Enum("draft", "published"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Page size (default 20, max 100)"),
	),
	mcp.WithNumber("offset",
		mcp.Description("Items to skip"),
	),
	mcp.WithBoolean("include_deleted",
		mcp.Description("Include soft-deleted notices"),
	),
)

var searchToolDef = mcp.NewTool("notice_search",
	mcp.WithDescription("Full-text search over notice titles and bodies. Results carry an HTML-safe snippet with <b> highlights."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Search words; operators are matched literally"),
	),
	mcp.WithString("category",
		mcp.Description("Filter by category slug"),
	),
	mcp.WithString("status",
		mcp.Description("Filter by status"),
		mcp.Enum("draft", "published"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Page size (default 20, max 100)"),
	),
	mcp.WithNumber("offset",
		mcp.Description("Items to skip"),
	),
	mcp.WithBoolean("include_deleted",
		mcp.Description("Include soft-deleted notices"),
	),
)

var previewToolDef = mcp.NewTool("notice_preview",
	mcp.WithDescription("Render a document to HTML, plain text and excerpt without storing it."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithObject("content",
		mcp.Required(),
		mcp.Description(contentDescription),
	),
	mcp.WithString("content_format",
		mcp.Description("Document format; detected from content when omitted"),
		mcp.Enum("delta", "tree"),
	),
)

var exportToolDef = mcp.NewTool("notice_export",
	mcp.WithDescription("Write every notice to a JSONL backup file."),
	mcp.WithString("path",
		mcp.Description("Target .jsonl path (default: ~/.clinicboard/exports/notices-<timestamp>.jsonl)"),
	),
	mcp.WithBoolean("include_deleted",
		mcp.Description("Also export soft-deleted notices"),
	),
)

var importToolDef = mcp.NewTool("notice_import",
	mcp.WithDescription("Restore notices from a JSONL backup file. Rendered fields are recomputed for every record."),
	mcp.WithDestructiveHintAnnotation(true),
	mcp.WithString("path",
		mcp.Required(),
		mcp.Description("Source .jsonl path"),
	),
	mcp.WithString("mode",
		mcp.Description("error: abort without writing on any problem (default). replace: overwrite existing ids and skip invalid records."),
		mcp.Enum("error", "replace"),
	),
)

var purgeToolDef = mcp.NewTool("notice_purge",
	mcp.WithDescription("Permanently remove soft-deleted notices."),
	mcp.WithDestructiveHintAnnotation(true),
	mcp.WithNumber("older_than_days",
		mcp.Description("Only purge notices deleted more than this many days ago"),
	),
)

var rebuildToolDef = mcp.NewTool("notice_rebuild",
	mcp.WithDescription("Re-render HTML and plain text for every stored notice and refresh the search index."),
	mcp.WithIdempotentHintAnnotation(true),
)

var categoryCreateToolDef = mcp.NewTool("category_create",
	mcp.WithDescription("Create a notice category."),
	mcp.WithString("slug",
		mcp.Required(),
		mcp.Description("URL slug: a-z, 0-9 and '-'"),
	),
	mcp.WithString("name",
		mcp.Required(),
		mcp.Description("Display name"),
	),
	mcp.WithString("description_md",
		mcp.Description("Markdown blurb shown above the category listing"),
	),
	mcp.WithNumber("sort_order",
		mcp.Description("Position in the category menu (ascending)"),
	),
)

var categoryListToolDef = mcp.NewTool("category_list",
	mcp.WithDescription("List categories with their published notice counts."),
	mcp.WithReadOnlyHintAnnotation(true),
)
