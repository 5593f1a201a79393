package store

// reduce applies an action to the state. Called only by Dispatch with the
// store lock held; this is the single writer.
func reduce(s *State, action Action) {
	switch a := action.(type) {
	case EnqueueCommands:
		s.Commands = append(s.Commands, a.Commands...)

	case CommandsProcessed:
		n := a.Count
		if n > len(s.Commands) {
			n = len(s.Commands)
		}
		if n > 0 {
			s.Commands = append([]Command(nil), s.Commands[n:]...)
		}

	case PluginLoaded:
		id := a.Definition.ID()
		s.Definitions[id] = a.Definition
		delete(s.Uninstalled, id)

	case PluginUninstalled:
		delete(s.Definitions, a.Details.ID)
		s.Uninstalled[a.Details.ID] = true

	case SetPluginEnabled:
		set := s.EnabledPlugins[a.AppName]
		if set == nil {
			set = make(map[string]bool)
			s.EnabledPlugins[a.AppName] = set
		}
		set[a.PluginID] = true

	case SetPluginDisabled:
		delete(s.EnabledPlugins[a.AppName], a.PluginID)

	case SetDevicePluginEnabled:
		s.EnabledDevicePlugins[a.PluginID] = true

	case SetDevicePluginDisabled:
		delete(s.EnabledDevicePlugins, a.PluginID)

	case SetSelection:
		s.Selection = a.Selection

	case PushMessage:
		key := QueueKey(a.ClientID, a.PluginID)
		s.MessageQueues[key] = append(s.MessageQueues[key], a.Message)

	case ClearMessageQueue:
		delete(s.MessageQueues, QueueKey(a.ClientID, a.PluginID))
	}
}
