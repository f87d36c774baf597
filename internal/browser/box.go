package browser

import (
	"encoding/json"
	"fmt"
)

// Box is an element's border box in CSS pixels, relative to the top-left
// corner of the document.
type Box struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Empty reports whether the box covers no area.
func (b Box) Empty() bool {
	return b.Width <= 0 || b.Height <= 0
}

func (b Box) String() string {
	return fmt.Sprintf("%.0fx%.0f+%.0f+%.0f", b.Width, b.Height, b.X, b.Y)
}

// boundingBoxJS returns a script evaluating to the document box of the first
// visible element matching loc, or null.
func boundingBoxJS(loc Locator) string {
	xpath, _ := json.Marshal(loc.XPath())
	return fmt.Sprintf(`(() => {
  const found = document.evaluate(%s, document, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null);
  for (let i = 0; i < found.snapshotLength; i++) {
    const r = found.snapshotItem(i).getBoundingClientRect();
    if (r.width > 0 && r.height > 0) {
      return {x: r.left + window.scrollX, y: r.top + window.scrollY, width: r.width, height: r.height};
    }
  }
  return null;
})()`, xpath)
}
