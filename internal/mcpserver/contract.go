package mcpserver

import "strings"

// PostFormatContract describes the document format the post pipeline
// accepts, for LLM consumers creating posts. ext is the document extension
// the posts directory is scanned for.
func PostFormatContract(ext string) string {
	return strings.ReplaceAll(postFormatContract, "{ext}", ext)
}

const postFormatContract = `# Post Format Contract

A post is a single UTF-8 text file named ` + "`" + `<name>{ext}` + "`" + ` directly inside the posts
directory. It is made of three parts separated by the first two ` + "`" + `---` + "`" + ` markers:

` + "```" + `markdown
optional preamble, ignored
---
title: Human-readable title    # REQUIRED
date: 2025-01-15               # REQUIRED, ISO-8601 so posts sort by date
slug: human-readable-title     # REQUIRED, keep it equal to <name>
---

Body in CommonMark. Raw HTML is passed through unchanged.
` + "```" + `

## Rules

1. **Two markers.** Only the first two ` + "`" + `---` + "`" + ` occurrences delimit the metadata.
   Any later ` + "`" + `---` + "`" + ` belongs to the body. A file with fewer than two is rejected.
2. **Metadata is YAML.** It must be a mapping; duplicate keys are rejected.
3. **` + "`" + `title` + "`" + `, ` + "`" + `date` + "`" + ` and ` + "`" + `slug` + "`" + ` are required** and must be non-empty scalars.
   Values are taken verbatim (` + "`" + `date` + "`" + ` is not reformatted). Other keys are ignored.
4. **The file name is the address.** ` + "`" + `/post/<name>` + "`" + ` reads ` + "`" + `<name>{ext}` + "`" + `; the ` + "`" + `slug` + "`" + `
   value is never consulted for lookup. Listings link to ` + "`" + `/post/<slug>` + "`" + `, so a post
   whose ` + "`" + `slug` + "`" + ` differs from its file name is listed but unreachable from its link.
   Slugs contain no path separators. ` + "`" + `create_post` + "`" + ` names the file after the slug.
5. **Broken files are skipped** in listings and answer 500 when requested directly.
6. **Listing order** is newest ` + "`" + `date` + "`" + ` first, then ` + "`" + `slug` + "`" + `.

## Example

` + "```" + `markdown
---
title: Hot reloading templates
date: 2025-01-20
slug: hot-reloading-templates
---

# Hot reloading templates

Edit a template and the page refreshes.
` + "```" + `
`
