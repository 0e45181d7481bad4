// Package task executes one assistant turn end to end.
//
// An Orchestrator marks the assistant message as running, resolves the
// participant, rebuilds the conversation history, materializes ad-hoc
// context, assembles the prompt and dispatches it to the execution strategy
// matching the participant:
//
//	LocalAgent, RawModel  -> strategy.Local    (in-process agent runtime)
//	DeployedEngine        -> strategy.Deployed (Vertex AI Agent Engine)
//	RemoteProtocol        -> strategy.Remote   (A2A JSON-RPC)
//
// Every backend event is appended to the message's run as it arrives. The
// final text, status and error details are written once the strategy
// returns. Failures escaping the pipeline, including panics, are recorded on
// the message before Execute returns.
package task
