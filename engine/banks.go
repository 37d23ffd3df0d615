package engine

// SetSoundBankRootDirectory sets the prefix prepended to relative bank file
// paths. Initialize sets it to <BankOutputDirectory>/<platform>/; callers
// may change it afterwards.
func (e *Engine) SetSoundBankRootDirectory(directory string) {
	e.bankRoot = directory
}

// SoundBankRootDirectory returns the current bank path prefix.
func (e *Engine) SoundBankRootDirectory() string {
	return e.bankRoot
}

// LoadSoundBankFile loads the bank at <root directory> + filePath. It only
// needs a valid system handle, not full readiness; Initialize uses this
// same path for the master banks.
func (e *Engine) LoadSoundBankFile(filePath string) bool {
	_, ok := e.LoadSoundBankFileHandle(filePath)
	return ok
}

// LoadSoundBankFileHandle is LoadSoundBankFile returning the bank handle.
// The handle is owned by the runtime; callers only reference it.
func (e *Engine) LoadSoundBankFileHandle(filePath string) (Bank, bool) {
	if e.sys == nil || !e.sys.IsValid() {
		return nil, false
	}

	fullPath := e.bankRoot + filePath

	bank, err := e.sys.LoadBankFile(fullPath, LoadBankNormal)
	if err != nil {
		e.log.Error("failed to load sound bank", "path", fullPath, "error", err)
		return nil, false
	}
	return bank, true
}

// UnloadSoundBankPath unloads a loaded bank identified by its internal
// logical path. Fails when no bank with that path is loaded.
func (e *Engine) UnloadSoundBankPath(studioPath string) bool {
	if e.sys == nil || !e.sys.IsValid() {
		return false
	}

	bank, err := e.sys.Bank(studioPath)
	if err != nil {
		return false
	}
	return e.UnloadSoundBank(bank)
}

// UnloadSoundBank unloads a bank by handle. Unloading a bank while
// instances from it still play is the runtime's concern. The façade keeps
// no reference counts.
func (e *Engine) UnloadSoundBank(bank Bank) bool {
	if e.sys == nil || !e.sys.IsValid() || bank == nil {
		return false
	}
	return bank.Unload() == nil
}
