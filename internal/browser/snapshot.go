package browser

import "strings"

// maxSnapshotChars caps diagnostic snapshots attached to failed runs.
const maxSnapshotChars = 8000

// textSnapshotJS renders headings and visible text in a compact outline,
// used by the CDP backends which have no aria snapshot.
const textSnapshotJS = `(() => {
  const out = [];
  const walk = (el, depth) => {
    for (const child of el.children) {
      const tag = child.tagName.toLowerCase();
      if (tag === 'script' || tag === 'style' || tag === 'template') continue;
      const style = window.getComputedStyle(child);
      if (style.display === 'none' || style.visibility === 'hidden') continue;
      const role = child.getAttribute('role') || (/^h[1-6]$/.test(tag) ? 'heading' : '');
      const own = Array.from(child.childNodes)
        .filter(n => n.nodeType === Node.TEXT_NODE)
        .map(n => n.textContent.trim())
        .filter(Boolean)
        .join(' ');
      if (role || own) {
        out.push('  '.repeat(depth) + '- ' + (role || tag) + (own ? ' "' + own + '"' : ''));
      }
      walk(child, depth + 1);
    }
  };
  if (document.body) walk(document.body, 0);
  return out.join('\n');
})()`

func truncate(s string, maxChars int) string {
	if maxChars <= 0 || len(s) <= maxChars {
		return s
	}
	return s[:maxChars] + "\n... (truncated)"
}

// normalizeSnapshot trims trailing whitespace on each line.
func normalizeSnapshot(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t\r")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
