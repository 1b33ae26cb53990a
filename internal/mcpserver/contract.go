package mcpserver

// MapFormatContract describes the canonical sheet-description format that
// LLM consumers should follow when calling create_xmind.
const MapFormatContract = `# xmap Mind-Map Description Contract

create_xmind takes an array of sheet descriptions. Each sheet is one
independently-rooted tree. Topics reference each other by TITLE, never by
id: ids are generated during the build and titles are resolved afterwards,
so forward references are fine.

## Sheet

` + "```" + `json
{
  "title": "Plan",                    // REQUIRED
  "rootTopic": { ... },               // REQUIRED - topic description
  "relationships": [                  // OPTIONAL - edges inside THIS sheet
    {"sourceTitle": "A", "targetTitle": "B", "title": "depends"}
  ],
  "theme": "business"                 // OPTIONAL - default | dark | business
}
` + "```" + `

## Topic

` + "```" + `json
{
  "title": "Deployment",              // REQUIRED
  "children": [ { ... }, { ... } ],   // OPTIONAL - nested topics
  "notes": {"content": "plain text", "html": "<p>rich</p>"},
  "href": "https://example.com",      // OPTIONAL - external link
  "linkToTopic": "Analysis",          // OPTIONAL - link to another topic BY TITLE
  "labels": ["ops", "q3"],
  "markers": ["priority-1", "task-start"],
  "callouts": ["remember this"],
  "structureClass": "org.xmind.ui.map.unbalanced",
  "boundaries": [{"range": "(0,1)", "title": "phase 1"}],
  "summaries":  [{"range": "(0,1)", "topicTitle": "first phase"}]
}
` + "```" + `

Planned-task fields (any of these makes the topic a task):

` + "```" + `json
{
  "taskStatus": "todo",               // todo | done
  "progress": 0.25,                   // 0.0 - 1.0
  "priority": 2,                      // 1 - 9
  "startDate": "2025-03-01",          // ISO date or RFC 3339 timestamp
  "dueDate":   "2025-03-08",
  "durationDays": 5,                  // relative alternative to dates
  "dependencies": [
    {"targetTitle": "Analysis", "type": "FS", "lag": 0}
  ]
}
` + "```" + `

## Rules

1. **Titles are the reference currency.** linkToTopic, dependencies and
   relationships name their target by title. Keep titles unique across the
   whole document: when titles collide, the last topic built wins silently.
2. **linkToTopic wins over href.** If both are given, the resolved link
   replaces the literal href.
3. **Dependencies stay inside one sheet.** linkToTopic may cross sheets;
   dependencies and relationships may not.
4. **Dependency types** are FS, FF, SS, or SF (finish/start combinations),
   with an optional lag in milliseconds.
5. **Ranges** use the form "(start,end)" - inclusive indices over the
   topic's immediate children. Indices are not bounds-checked.
6. **Dates vs durationDays**: give startDate+dueDate for absolute
   planning, or durationDays plus dependencies for relative planning.
   durationDays is ignored when startDate is present.
7. **Output path** must end with .xmind and lie inside an allowed
   directory. Pass "overwrite": true to replace an existing file.

## Example

` + "```" + `json
[{
  "title": "Plan",
  "rootTopic": {
    "title": "Deployment",
    "children": [
      {"title": "Analysis", "durationDays": 3},
      {"title": "Development", "durationDays": 5,
       "dependencies": [{"targetTitle": "Analysis", "type": "FS"}]}
    ]
  }
}]
` + "```" + `
`
