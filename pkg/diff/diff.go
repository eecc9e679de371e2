// Package diff provides the line-level compare used by the version history UI
// Package diff 提供版本历史界面使用的行级对比
package diff

// LineType classifies a single line of an edit script
// LineType 表示编辑脚本中单行的类别
type LineType string

const (
	// LineAdded line only exists in the new text
	// LineAdded 行仅存在于新文本中
	LineAdded LineType = "added"
	// LineRemoved line only exists in the old text
	// LineRemoved 行仅存在于旧文本中
	LineRemoved LineType = "removed"
	// LineUnchanged line exists in both texts
	// LineUnchanged 行在两份文本中都存在
	LineUnchanged LineType = "unchanged"
)

// Line is one entry of the edit script produced by Lines
// Line 是 Lines 生成的编辑脚本中的一项
// OldLineNumber/NewLineNumber are 1-based; 0 means the line does not exist on that side
// OldLineNumber/NewLineNumber 从 1 开始；0 表示该侧不存在此行
type Line struct {
	Type          LineType `json:"type"`
	Content       string   `json:"content"`
	OldLineNumber int      `json:"oldLineNumber,omitempty"`
	NewLineNumber int      `json:"newLineNumber,omitempty"`
}

// Lines compares two snapshots line by line and returns an edit script.
//
// The walk keeps one cursor per side and looks a single line ahead to decide
// between deletion, insertion and modification. It is a heuristic: the script
// is always valid but not guaranteed minimal, and repeated lines can misalign.
// Output is deterministic for identical inputs.
//
// Lines 逐行对比两份快照并返回编辑脚本。
// 双游标推进，只向前看一行来区分删除、插入与修改。这是一个启发式算法：
// 结果始终有效但不保证最短编辑距离，重复行可能错位。相同输入输出恒定。
func Lines(oldText, newText string) []Line {
	oldLines := splitLines(oldText)
	newLines := splitLines(newText)

	result := make([]Line, 0, maxInt(len(oldLines), len(newLines)))

	i, j := 0, 0
	for i < len(oldLines) || j < len(newLines) {
		switch {
		case i >= len(oldLines):
			// Old side exhausted, the rest is pure insertion
			// 旧文本耗尽，其余全部为插入
			result = append(result, Line{
				Type:          LineAdded,
				Content:       newLines[j],
				NewLineNumber: j + 1,
			})
			j++
		case j >= len(newLines):
			result = append(result, Line{
				Type:          LineRemoved,
				Content:       oldLines[i],
				OldLineNumber: i + 1,
			})
			i++
		case oldLines[i] == newLines[j]:
			result = append(result, Line{
				Type:          LineUnchanged,
				Content:       oldLines[i],
				OldLineNumber: i + 1,
				NewLineNumber: j + 1,
			})
			i++
			j++
		case i+1 < len(oldLines) && oldLines[i+1] == newLines[j]:
			// Next old line matches the current new line, so old[i] was deleted
			// 旧文本下一行与新文本当前行相同，old[i] 视为删除
			result = append(result, Line{
				Type:          LineRemoved,
				Content:       oldLines[i],
				OldLineNumber: i + 1,
			})
			i++
		case j+1 < len(newLines) && newLines[j+1] == oldLines[i]:
			result = append(result, Line{
				Type:          LineAdded,
				Content:       newLines[j],
				NewLineNumber: j + 1,
			})
			j++
		default:
			// Treat as in-place modification: one removed + one added
			// 视为原地修改：一条删除加一条新增
			result = append(result, Line{
				Type:          LineRemoved,
				Content:       oldLines[i],
				OldLineNumber: i + 1,
			})
			result = append(result, Line{
				Type:          LineAdded,
				Content:       newLines[j],
				NewLineNumber: j + 1,
			})
			i++
			j++
		}
	}

	return result
}

// Stats counts the entries of an edit script by type
// Stats 按类别统计编辑脚本条目数
func Stats(lines []Line) (added, removed, unchanged int) {
	for _, l := range lines {
		switch l.Type {
		case LineAdded:
			added++
		case LineRemoved:
			removed++
		case LineUnchanged:
			unchanged++
		}
	}
	return
}

func splitLines(s string) []string {
	lines := []string{}
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	lines = append(lines, s[start:])
	return lines
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
