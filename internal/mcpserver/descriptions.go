package mcpserver

// Tool descriptions with interpretation guidance for LLMs.
// Each description explains what the tool does, when to use it,
// and how to read the results.

func describeScan() string {
	return `Finds unused files, assets, dependencies, and exports in a JavaScript or TypeScript workspace.

USE WHEN:
- Auditing a workspace for dead code before a cleanup
- Checking which package.json dependencies nothing imports
- Finding orphaned components, utilities, or assets after a refactor
- Verifying entry point wiring after build configuration changes

INTERPRETING RESULTS:
- Confidence high: every reference to the subject resolved; a solid removal candidate
- Confidence low: a dynamic import, broad glob, or unresolved alias could still reach the subject; verify manually
- graph_confidence high: entry points were found and the import graph held together
- graph_confidence low: unresolved imports or unanchored dynamics weakened the graph
- graph_confidence degraded: no entry points were found; every verdict is capped at low confidence
- omitted_low_confidence counts findings suppressed by the default conservative mode
- warnings list anomalies (oversized files skipped, unresolved imports) worth reading before acting

METRICS RETURNED:
- summary: file/asset/dependency/export counts, coverage percentages, graph confidence
- unused_files, unused_assets, unused_dependencies, unused_exports: findings with confidence and reason
- entries: the resolved entry points the reachability walk started from

The workspace is never modified. Deletion runs through the clean command's dashboard and its reversible trash.`
}

func describeTrashSessions() string {
	return `Lists the deletion sessions held in a workspace's trash area.

USE WHEN:
- Checking what a previous clean deleted before restoring anything
- Finding the session id for a targeted restore
- Auditing reversible deletions without touching the workspace

INTERPRETING RESULTS:
- Sessions are ordered oldest first; ids look like batch-<unix-millis>
- created_at is recovered from the session id, so it names the deletion time
- entries list each trashed file's original workspace-relative path
- An empty list means the trash holds nothing to restore

METRICS RETURNED:
- sessions: id, created_at, entries (original_path, trashed_path)
- total: number of sessions on disk

This tool only reads. Restores run through the restore command or the clean dashboard.`
}
