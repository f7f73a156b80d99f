package mcpserver

// InsertionFormatContract describes the insertion payload that LLM
// consumers must follow when applying links.
const InsertionFormatContract = `# Gebo Link Insertion Contract

Every call to apply_link_insertions MUST pass a JSON array of insertion
objects with this shape.

## Structure

` + "```" + `json
[
  {
    "anchor_text": "golf grip",            // REQUIRED - phrase to wrap, must occur in the document text
    "url": "/blog/perfect-golf-grip",      // REQUIRED - target URL (internal path or absolute external URL)
    "target_title": "The Perfect Golf Grip", // OPTIONAL - enables semantic context validation
    "anti_patterns": ["grip tape"],        // OPTIONAL - reject if any occurs near the anchor
    "block_id": "blk_12"                   // OPTIONAL - restrict matching to one block
  }
]
` + "```" + `

## Rules

1. **anchor_text must occur verbatim** in the document's paragraph, list,
   callout, or accordion-answer text. Matching is case-insensitive; the
   document's original casing is always preserved in the output.
2. **Only the first unlinked occurrence** is wrapped. Text already inside
   an anchor is never wrapped again, so repeated calls are safe.
3. **Internal URLs** are root-relative paths (` + "`" + `/blog/slug` + "`" + `). External URLs
   are absolute with scheme and host.
4. **anti_patterns** are literal phrases. If any appears in the sentence
   around the anchor, the insertion is rejected.
5. **target_title** should be the target document's real title. When set,
   the anchor's context and specificity are checked against it.
6. Pick anchors from the ` + "`" + `anchor_patterns` + "`" + ` returned by get_link_candidates;
   they describe what each target document covers.
7. Respect the quota from get_link_quota. Do not exceed the recommended
   link count for the document.
`
