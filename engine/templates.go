package engine

// DefaultMessageTemplate asks the model to plan the agent's response to a turn.
const DefaultMessageTemplate = `# Task: Decide how {{.agentName}} responds to the latest message.

{{.providers}}

# Instructions
Write a thought, choose one or more actions from the available actions and,
when more context is needed, list the providers to consult.
{{if .actionNames}}{{.actionNames}}
{{end}}
Respond using this format:
<response>
  <thought>Your reasoning</thought>
  <actions>ACTION1,ACTION2</actions>
  <providers>PROVIDER1,PROVIDER2</providers>
  <text>The message {{.agentName}} sends, if any</text>
  <params>
    <ACTION1>
      <name>value</name>
    </ACTION1>
  </params>
</response>

Omit <providers> and <params> when they are not needed.
Your response must ONLY include the <response></response> block.`
