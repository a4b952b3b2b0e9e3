package browser

import "fmt"

// The probe scripts walk the document as a tree of rootable nodes: the main
// document, any open shadow roots, and same-origin nested documents. Cross
// origin frames throw on access and are skipped. Depth is bounded so a
// pathological page cannot recurse forever.
const gatherRootsJS = `
const gatherRoots = () => {
	const roots = [];
	const visit = (root, depth) => {
		if (!root || depth > 3) { return; }
		roots.push(root);
		const all = root.querySelectorAll ? root.querySelectorAll('*') : [];
		for (const el of all) {
			if (el.shadowRoot) { visit(el.shadowRoot, depth + 1); }
			if (el.tagName === 'IFRAME' || el.tagName === 'FRAME') {
				try {
					if (el.contentDocument) { visit(el.contentDocument, depth + 1); }
				} catch (e) { /* cross-origin */ }
			}
		}
	};
	visit(document, 0);
	return roots;
};`

// probeScript returns the first match's text or outer markup across all
// reachable roots, or "" when nothing matches.
func probeScript(selector, mode string) string {
	return fmt.Sprintf(`(() => {%s
	const sel = %q;
	const wantHTML = %q === 'html';
	for (const root of gatherRoots()) {
		let hit = null;
		try { hit = root.querySelector(sel); } catch (e) { continue; }
		if (!hit) { continue; }
		if (wantHTML) { return hit.outerHTML || ''; }
		return (hit.innerText || hit.textContent || '').trim();
	}
	return '';
})()`, gatherRootsJS, selector, mode)
}

// clickScript clicks the first visible match, if any.
func clickScript(selector string) string {
	return fmt.Sprintf(`(() => {%s
	const sel = %q;
	for (const root of gatherRoots()) {
		let hit = null;
		try { hit = root.querySelector(sel); } catch (e) { continue; }
		if (hit && typeof hit.click === 'function') { hit.click(); return true; }
	}
	return false;
})()`, gatherRootsJS, selector)
}

// anchorsScript collects every hyperlink across reachable roots in
// discovery order.
const anchorsScript = `(() => {` + gatherRootsJS + `
	const out = [];
	for (const root of gatherRoots()) {
		for (const el of root.querySelectorAll('a[href]')) {
			out.push({
				href: el.href || el.getAttribute('href') || '',
				text: (el.innerText || el.textContent || '').trim(),
			});
		}
	}
	return out;
})()`

// bodyTextScript concatenates the visible text of every reachable root.
const bodyTextScript = `(() => {` + gatherRootsJS + `
	const parts = [];
	for (const root of gatherRoots()) {
		if (root.body && root.body.innerText) {
			parts.push(root.body.innerText);
		} else if (root.host && root.textContent) {
			parts.push(root.textContent);
		}
	}
	return parts.join('\n');
})()`

// blocksScript returns the raw content of every match across roots.
func blocksScript(selector string) string {
	return fmt.Sprintf(`(() => {%s
	const sel = %q;
	const out = [];
	for (const root of gatherRoots()) {
		let hits = [];
		try { hits = root.querySelectorAll(sel); } catch (e) { continue; }
		for (const el of hits) { out.push(el.textContent || ''); }
	}
	return out;
})()`, gatherRootsJS, selector)
}
