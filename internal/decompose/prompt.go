package decompose

// subtaskPrompt is the prompt template for requirement decomposition.
const subtaskPrompt = `Analyze the following software development task and generate EXACTLY 3 to 5 high-level, non-overlapping subtasks:
Task: %s

Instructions:
1. Generate EXACTLY 3 to 5 distinct subtasks - no more, no less.
2. Each subtask should represent a major component or phase of development.
3. Ensure subtasks are broad enough to encompass significant work but specific enough to be actionable.
4. Focus on different aspects (e.g., one backend, one frontend, one for testing) rather than breaking down the same component.
5. Ensure NO DUPLICATION or overlap between subtasks.
6. Provide a category for each task. The category MUST be exactly one of: Backend, Frontend, API, DevOps, Testing.
7. Predict a module or component name if possible.
8. Each subtask summary should be comprehensive but under 100 words.

Output the result as JSON in exactly this format:
[
  {
    "summary": "Subtask summary in under 100 words",
    "category": "Backend",
    "component": "Suggested component/module",
    "title": "Short title for the tracker item"
  }
]

IMPORTANT: Verify that each subtask is unique and distinct before finalizing the output. The total number of subtasks MUST be between 3 and 5, inclusive.`

// testCasePrompt is the prompt template for test-case generation for one subtask.
const testCasePrompt = `Generate EXACTLY 3 to 5 comprehensive test cases for the following development task:

Task Description: %s

Instructions:
1. Generate EXACTLY 3 to 5 test cases - no more, no less.
2. Each test case should cover a critical functionality or edge case.
3. Test cases should be specific, actionable, and verifiable.
4. Include expected results and acceptance criteria.
5. Focus on different aspects of the task to ensure comprehensive coverage.
6. Ensure test cases are meaningful and not trivial.
7. The priority MUST be exactly one of: High, Medium, Low.

Output the result as JSON in exactly this format:
[
  {
    "test_id": "TC-1",
    "test_name": "Short descriptive name",
    "description": "Detailed test case description",
    "steps": ["Step 1", "Step 2", "Step 3"],
    "expected_result": "Expected outcome of the test",
    "priority": "High"
  }
]

IMPORTANT: Make sure each test case is unique and thorough. The total number of test cases MUST be between 3 and 5, inclusive.`
