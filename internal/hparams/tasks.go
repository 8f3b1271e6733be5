package hparams

import (
	"reflect"

	"hpresolve/internal/diag"
	"hpresolve/internal/document"
)

// TaskList pairs task names with their override files. Files[i] belongs to
// Names[i]; an empty file means the task has no override.
type TaskList struct {
	Names []string
	Files []string
}

// Len returns the number of tasks, or -1 when names and files disagree.
func (l TaskList) Len() int {
	if len(l.Names) != len(l.Files) {
		return -1
	}
	return len(l.Names)
}

// SingleTask is the task list of a document without a tasks section.
func SingleTask(name string) TaskList {
	return TaskList{Names: []string{name}, Files: []string{""}}
}

// ReadTaskList decodes the tasks section: task_names and hparam_files.
func ReadTaskList(n *document.Node) (TaskList, diag.List) {
	var errs diag.List
	if n.IsNull() || n.Kind != document.MappingNode {
		errs.Add(diag.New(diag.MissingRequiredField, "tasks must be a mapping with task_names and hparam_files").At("tasks").In(n.Source()))
		return TaskList{}, errs
	}

	var list TaskList
	for _, key := range []string{"task_names", "hparam_files"} {
		child, ok := n.Get(key)
		if !ok {
			errs.Add(diag.New(diag.MissingRequiredField, "tasks.%s is required", key).At("tasks." + key).In(n.Source()))
			continue
		}
		var out []string
		decodeValue(child, reflect.ValueOf(&out).Elem(), "tasks."+key, &errs)
		if key == "task_names" {
			list.Names = out
		} else {
			list.Files = out
		}
	}
	return list, errs
}
