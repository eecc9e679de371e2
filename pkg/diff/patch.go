package diff

import "github.com/sergi/go-diff/diffmatchpatch"

// MakePatch builds a diff-match-patch text patch transforming oldText into newText.
// Stored alongside every snapshot so clients can replay a change without
// downloading both full snapshots.
// MakePatch 生成将 oldText 变换为 newText 的 diff-match-patch 文本补丁。
// 与每个快照一起存储，客户端无需下载两份完整快照即可回放变更。
func MakePatch(oldText, newText string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(oldText, newText, false)
	patches := dmp.PatchMake(oldText, diffs)
	return dmp.PatchToText(patches)
}

// ApplyPatch applies a patch produced by MakePatch to base.
// The second return value is false when any hunk failed to apply.
// ApplyPatch 将 MakePatch 生成的补丁应用到 base 上。
// 第二个返回值为 false 表示存在未能应用的补丁块。
func ApplyPatch(base, patch string) (string, bool) {
	if patch == "" {
		return base, true
	}
	dmp := diffmatchpatch.New()
	patches, err := dmp.PatchFromText(patch)
	if err != nil {
		return base, false
	}
	result, applied := dmp.PatchApply(patches, base)
	for _, ok := range applied {
		if !ok {
			return result, false
		}
	}
	return result, true
}
