package tracer

// bundlerCollectorTracerJS is the bundler-collector tracer used by reference ERC-4337 bundlers when the
// target node has no native erc7562Tracer registered. It records, per call frame: opcodes executed,
// storage slots read/written, EXTCODE* targets, CREATE2 invocations, and keccak preimages, then folds the
// top-level frames invoked directly by the EntryPoint into callsFromEntryPoint.
const bundlerCollectorTracerJS = `
{
	numberLevels: [],
	callsFromEntryPoint: [],
	currentLevel: null,
	keccak: [],
	calls: [],
	logs: [],
	debug: [],

	fault(log, db) {
		this.debug.push("fault depth=" + log.getDepth() + " gas=" + log.getGas() + " cost=" + log.getCost())
	},

	result(ctx, db) {
		return {
			callsFromEntryPoint: this.callsFromEntryPoint,
			keccak: this.keccak,
			calls: this.calls,
			logs: this.logs,
			debug: this.debug,
		}
	},

	enter(frame) {
		this.calls.push({
			type: frame.getType(),
			from: toHex(frame.getFrom()),
			to: toHex(frame.getTo()),
			method: toHex(frame.getInput()).slice(0, 10),
			gas: frame.getGas(),
			value: frame.getValue(),
		})
	},

	exit(frame) {
		this.calls.push({
			type: frame.getError() != null ? "REVERT" : "RETURN",
			gasUsed: frame.getGasUsed(),
			data: toHex(frame.getOutput()).slice(0, 4000),
		})
	},

	step(log, db) {
		const opcode = log.op.toString()

		if (log.getDepth() === 1) {
			if (this.currentLevel != null) {
				this.callsFromEntryPoint.push(this.currentLevel)
			}
			this.currentLevel = {
				topLevelMethodSig: toHex(log.contract.getInput()).slice(0, 10),
				topLevelTargetAddress: toHex(log.contract.getAddress()),
				opcodes: {},
				access: {},
				contractSize: {},
				extCodeAccessInfo: {},
				oog: false,
			}
		}

		if (log.getGas() < log.getCost() || log.getGas() < 3000) {
			this.currentLevel.oog = true
		}

		if (opcode === "SLOAD" || opcode === "SSTORE") {
			const slot = log.stack.peek(0).toString(16)
			const addr = toHex(log.contract.getAddress())
			let access = this.currentLevel.access[addr]
			if (access == null) {
				access = { reads: {}, writes: {} }
				this.currentLevel.access[addr] = access
			}
			if (opcode === "SLOAD") {
				access.reads[slot] = "0x0"
			} else {
				access.writes[slot] = (access.writes[slot] || 0) + 1
			}
		}

		if (opcode.startsWith("EXTCODE")) {
			const addr = toHex(log.stack.peek(0))
			this.currentLevel.extCodeAccessInfo[addr] = true
		}

		if (opcode === "SHA3" || opcode === "KECCAK256") {
			const offset = log.stack.peek(0).valueOf()
			const length = log.stack.peek(1).valueOf()
			this.keccak.push(toHex(log.memory.slice(offset, offset + length)))
		}

		const count = this.currentLevel.opcodes[opcode] || 0
		this.currentLevel.opcodes[opcode] = count + 1
	},
}
`
