package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"scout/internal/domain"
)

// Role is a specialized persona used by the multi-agent task runner.
type Role struct {
	Name   string
	Prompt string
}

var taskRoles = map[string]Role{
	"planner": {
		Name:   "planner",
		Prompt: "You are a planner. Break the task into a short numbered plan of at most 5 concrete steps. Output only the plan.",
	},
	"researcher": {
		Name:   "researcher",
		Prompt: "You are a researcher. Given a task and source material, extract the facts relevant to the task as a bullet list. Cite sources by number. Output only the findings.",
	},
	"coder": {
		Name:   "coder",
		Prompt: "You are a careful programmer. Produce working, idiomatic code with a brief explanation.",
	},
	"executor": {
		Name:   "executor",
		Prompt: "You carry out tasks. Given a plan and findings, produce the final deliverable the task asks for.",
	},
	"critic": {
		Name:   "critic",
		Prompt: "You are a critical reviewer. Point out concrete errors or omissions in the answer, or reply APPROVED when it is sound. Be brief.",
	},
}

// TaskResult holds the artifacts of one multi-agent run.
type TaskResult struct {
	Task     string
	Plan     string
	Findings string
	Answer   string
	Review   string
}

// ResearchFunc produces source material for a task, typically the formatted
// output of the search-and-read pipeline.
type ResearchFunc func(ctx context.Context, query string) (string, error)

// TaskRunner coordinates role-specialized passes over a single task:
// plan, research, answer, review.
type TaskRunner struct {
	router   Dispatcher
	research ResearchFunc // optional
	logger   *slog.Logger
}

type TaskRunnerConfig struct {
	Router   Dispatcher
	Research ResearchFunc
	Logger   *slog.Logger
}

func NewTaskRunner(cfg TaskRunnerConfig) *TaskRunner {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &TaskRunner{
		router:   cfg.Router,
		research: cfg.Research,
		logger:   cfg.Logger,
	}
}

func (t *TaskRunner) ask(ctx context.Context, role Role, content string) (string, error) {
	reply, _, err := t.router.Dispatch(ctx, []domain.Message{
		{Role: domain.RoleSystem, Content: role.Prompt},
		{Role: domain.RoleUser, Content: content},
	})
	if err != nil {
		return "", fmt.Errorf("%s pass: %w", role.Name, err)
	}
	return reply, nil
}

// ExecuteTask runs the full pipeline for a task. Research is skipped when no
// research function is configured; review failures degrade to an empty
// review rather than failing the run.
func (t *TaskRunner) ExecuteTask(ctx context.Context, task string) (TaskResult, error) {
	res := TaskResult{Task: task}

	plan, err := t.ask(ctx, taskRoles["planner"], task)
	if err != nil {
		return res, err
	}
	res.Plan = plan
	t.logger.Info("task planned", "task", truncateForLog(task))

	if t.research != nil {
		material, err := t.research(ctx, task)
		if err != nil {
			t.logger.Warn("research failed, answering without sources", "error", err)
		} else {
			findings, err := t.ask(ctx, taskRoles["researcher"],
				fmt.Sprintf("Task: %s\n\nSources:\n%s", task, material))
			if err != nil {
				return res, err
			}
			res.Findings = findings
		}
	}

	answerRole := taskRoles["executor"]
	if looksLikeCode(task) {
		answerRole = taskRoles["coder"]
	}
	prompt := fmt.Sprintf("Task: %s\n\nPlan:\n%s", task, res.Plan)
	if res.Findings != "" {
		prompt += "\n\nFindings:\n" + res.Findings
	}
	answer, err := t.ask(ctx, answerRole, prompt)
	if err != nil {
		return res, err
	}
	res.Answer = answer

	review, err := t.ask(ctx, taskRoles["critic"],
		fmt.Sprintf("Task: %s\n\nAnswer:\n%s", task, answer))
	if err != nil {
		t.logger.Warn("review pass failed", "error", err)
	} else {
		res.Review = review
	}
	return res, nil
}

func looksLikeCode(task string) bool {
	lower := strings.ToLower(task)
	for _, kw := range []string{"code", "function", "program", "script", "implement", "bug", "compile"} {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func truncateForLog(s string) string {
	if len(s) > 80 {
		return s[:80] + "..."
	}
	return s
}
