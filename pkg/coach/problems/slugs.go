package problems

// slugByNumber maps well-known problem numbers to their stable slugs so the
// common ones resolve without a search round-trip. Numbers not listed here
// fall back to the keyword search in the structured tier.
var slugByNumber = map[int]string{
	1:    "two-sum",
	2:    "add-two-numbers",
	3:    "longest-substring-without-repeating-characters",
	4:    "median-of-two-sorted-arrays",
	5:    "longest-palindromic-substring",
	7:    "reverse-integer",
	11:   "container-with-most-water",
	15:   "3sum",
	17:   "letter-combinations-of-a-phone-number",
	19:   "remove-nth-node-from-end-of-list",
	20:   "valid-parentheses",
	21:   "merge-two-sorted-lists",
	22:   "generate-parentheses",
	23:   "merge-k-sorted-lists",
	25:   "reverse-nodes-in-k-group",
	33:   "search-in-rotated-sorted-array",
	39:   "combination-sum",
	42:   "trapping-rain-water",
	46:   "permutations",
	48:   "rotate-image",
	49:   "group-anagrams",
	53:   "maximum-subarray",
	55:   "jump-game",
	56:   "merge-intervals",
	62:   "unique-paths",
	70:   "climbing-stairs",
	72:   "edit-distance",
	76:   "minimum-window-substring",
	78:   "subsets",
	79:   "word-search",
	84:   "largest-rectangle-in-histogram",
	98:   "validate-binary-search-tree",
	100:  "same-tree",
	102:  "binary-tree-level-order-traversal",
	104:  "maximum-depth-of-binary-tree",
	121:  "best-time-to-buy-and-sell-stock",
	124:  "binary-tree-maximum-path-sum",
	125:  "valid-palindrome",
	127:  "word-ladder",
	128:  "longest-consecutive-sequence",
	133:  "clone-graph",
	139:  "word-break",
	141:  "linked-list-cycle",
	143:  "reorder-list",
	146:  "lru-cache",
	152:  "maximum-product-subarray",
	153:  "find-minimum-in-rotated-sorted-array",
	155:  "min-stack",
	167:  "two-sum-ii-input-array-is-sorted",
	198:  "house-robber",
	200:  "number-of-islands",
	206:  "reverse-linked-list",
	207:  "course-schedule",
	208:  "implement-trie-prefix-tree",
	211:  "design-add-and-search-words-data-structure",
	212:  "word-search-ii",
	213:  "house-robber-ii",
	217:  "contains-duplicate",
	226:  "invert-binary-tree",
	230:  "kth-smallest-element-in-a-bst",
	235:  "lowest-common-ancestor-of-a-binary-search-tree",
	238:  "product-of-array-except-self",
	239:  "sliding-window-maximum",
	242:  "valid-anagram",
	252:  "meeting-rooms",
	253:  "meeting-rooms-ii",
	261:  "graph-valid-tree",
	268:  "missing-number",
	271:  "encode-and-decode-strings",
	287:  "find-the-duplicate-number",
	295:  "find-median-from-data-stream",
	297:  "serialize-and-deserialize-binary-tree",
	300:  "longest-increasing-subsequence",
	322:  "coin-change",
	323:  "number-of-connected-components-in-an-undirected-graph",
	338:  "counting-bits",
	347:  "top-k-frequent-elements",
	371:  "sum-of-two-integers",
	416:  "partition-equal-subset-sum",
	417:  "pacific-atlantic-water-flow",
	424:  "longest-repeating-character-replacement",
	435:  "non-overlapping-intervals",
	543:  "diameter-of-binary-tree",
	567:  "permutation-in-string",
	572:  "subtree-of-another-tree",
	647:  "palindromic-substrings",
	703:  "kth-largest-element-in-a-stream",
	704:  "binary-search",
	739:  "daily-temperatures",
	746:  "min-cost-climbing-stairs",
	778:  "swim-in-rising-water",
	846:  "hand-of-straights",
	853:  "car-fleet",
	875:  "koko-eating-bananas",
	973:  "k-closest-points-to-origin",
	981:  "time-based-key-value-store",
	994:  "rotting-oranges",
	1046: "last-stone-weight",
	1143: "longest-common-subsequence",
	1448: "count-good-nodes-in-binary-tree",
	1584: "min-cost-to-connect-all-points",
	1851: "minimum-interval-to-include-each-query",
	2013: "detect-squares",
}
